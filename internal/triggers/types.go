package triggers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
)

// Type identifies a trigger condition class. Exactly one strategy owns each type.
type Type string

func (t Type) String() string {
	return string(t)
}

// ParseType normalizes raw input into a Type. It does not check registration.
func ParseType(raw string) (Type, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("trigger type is required")
	}
	return Type(value), nil
}

var (
	ErrStrategyNotFound  = errors.New("trigger strategy not found")
	ErrStrategyDisabled  = errors.New("trigger strategy disabled")
	ErrDuplicateStrategy = errors.New("trigger strategy already registered")
)

// Result is the outcome of a single strategy evaluation.
type Result struct {
	Triggered        bool
	TriggerType      Type
	NotificationType enums.NotificationType
	ConditionID      string
	Title            string
	Message          string
	LocationInfo     string
	Priority         int
	Data             map[string]any
}

// NotTriggered is the zero outcome for the given type.
func NotTriggered(t Type) Result {
	return Result{TriggerType: t}
}

// Outcome is what the engine hands back from one pass over a context.
type Outcome struct {
	Results        []Result
	TotalEvaluated int
	Faults         int
}

// Triggered reports whether any strategy fired.
func (o Outcome) Triggered() bool {
	return len(o.Results) > 0
}

// TriggeredInfo is one fired entry inside an EvaluationResult.
type TriggeredInfo struct {
	TriggerType      Type                   `json:"triggerType"`
	NotificationType enums.NotificationType `json:"notificationType"`
	TriggerCondition string                 `json:"triggerCondition"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	LocationInfo     string                 `json:"locationInfo,omitempty"`
	Priority         int                    `json:"priority"`
	Data             map[string]any         `json:"data,omitempty"`
	Suppressed       bool                   `json:"suppressed"`
}

// EvaluationResult summarizes a sweep or on-demand evaluation.
type EvaluationResult struct {
	Triggered      bool            `json:"triggered"`
	TriggeredCount int             `json:"triggeredCount"`
	TotalEvaluated int             `json:"totalEvaluated"`
	TriggeredList  []TriggeredInfo `json:"triggeredList"`
	EvaluationTime time.Time       `json:"evaluationTime"`
	LocationInfo   string          `json:"locationInfo,omitempty"`
}

// NewTriggeredInfo converts an engine result into its reported shape.
func NewTriggeredInfo(r Result) TriggeredInfo {
	return TriggeredInfo{
		TriggerType:      r.TriggerType,
		NotificationType: r.NotificationType,
		TriggerCondition: r.ConditionID,
		Title:            r.Title,
		Message:          r.Message,
		LocationInfo:     r.LocationInfo,
		Priority:         r.Priority,
		Data:             r.Data,
	}
}

// StrategyInfo is the admin view of a registered strategy.
type StrategyInfo struct {
	Type           Type   `json:"triggerType"`
	Description    string `json:"description"`
	Priority       int    `json:"priority"`
	Enabled        bool   `json:"enabled"`
	Implementation string `json:"implementation"`
}
