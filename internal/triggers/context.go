package triggers

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/angelmondragon/citypulse-backend/pkg/enums"
	"github.com/angelmondragon/citypulse-backend/pkg/types"
	"github.com/google/uuid"
)

// ContextParams are the inputs copied into a Context.
type ContextParams struct {
	UserID        uuid.UUID
	Interests     []enums.InterestCategory
	Location      *types.Location
	Snapshot      map[string]any
	Now           time.Time
	LastTriggered map[Type]time.Time
	Metadata      map[string]any
}

// Context is the read-only input handed to every strategy.
// All collections are copied when it is built; nothing mutates it afterwards.
type Context struct {
	userID        uuid.UUID
	interests     map[enums.InterestCategory]struct{}
	location      types.Location
	hasLocation   bool
	snapshot      map[string]any
	now           time.Time
	lastTriggered map[Type]time.Time
	metadata      map[string]any
}

// NewContext builds an immutable Context. A zero Now defaults to the current UTC time.
func NewContext(p ContextParams) *Context {
	tc := &Context{
		userID:        p.UserID,
		interests:     make(map[enums.InterestCategory]struct{}, len(p.Interests)),
		snapshot:      make(map[string]any, len(p.Snapshot)),
		now:           p.Now,
		lastTriggered: make(map[Type]time.Time, len(p.LastTriggered)),
		metadata:      make(map[string]any, len(p.Metadata)),
	}
	if tc.now.IsZero() {
		tc.now = time.Now().UTC()
	}
	for _, interest := range p.Interests {
		tc.interests[interest] = struct{}{}
	}
	if p.Location != nil {
		tc.location = *p.Location
		tc.hasLocation = true
	}
	for k, v := range p.Snapshot {
		tc.snapshot[k] = v
	}
	for k, v := range p.LastTriggered {
		tc.lastTriggered[k] = v
	}
	for k, v := range p.Metadata {
		tc.metadata[k] = v
	}
	return tc
}

func (c *Context) UserID() uuid.UUID { return c.userID }

func (c *Context) Now() time.Time { return c.now }

// HasInterest reports whether the user subscribed to the category.
func (c *Context) HasInterest(category enums.InterestCategory) bool {
	_, ok := c.interests[category]
	return ok
}

// Interests returns the subscribed categories in sorted order.
func (c *Context) Interests() []enums.InterestCategory {
	out := make([]enums.InterestCategory, 0, len(c.interests))
	for interest := range c.interests {
		out = append(out, interest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Location returns the evaluation location, if any.
func (c *Context) Location() (types.Location, bool) {
	return c.location, c.hasLocation
}

// LocationInfo formats the location for results, or returns an empty string.
func (c *Context) LocationInfo() string {
	if !c.hasLocation {
		return ""
	}
	return c.location.String()
}

// Value returns the raw snapshot entry for key.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.snapshot[key]
	return v, ok
}

// Has reports whether the snapshot carries key.
func (c *Context) Has(key string) bool {
	_, ok := c.snapshot[key]
	return ok
}

// Float reads a numeric snapshot entry. Non-numeric values report false.
func (c *Context) Float(key string) (float64, bool) {
	v, ok := c.snapshot[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String reads a string snapshot entry.
func (c *Context) String(key string) (string, bool) {
	v, ok := c.snapshot[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SnapshotKeys lists the snapshot keys in sorted order.
func (c *Context) SnapshotKeys() []string {
	keys := make([]string, 0, len(c.snapshot))
	for k := range c.snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LastTriggered returns when the type last fired for this user, if known.
func (c *Context) LastTriggered(t Type) (time.Time, bool) {
	at, ok := c.lastTriggered[t]
	return at, ok
}

// Meta returns a metadata entry.
func (c *Context) Meta(key string) (any, bool) {
	v, ok := c.metadata[key]
	return v, ok
}

// MetaString returns a string metadata entry.
func (c *Context) MetaString(key string) string {
	v, _ := c.metadata[key].(string)
	return v
}
