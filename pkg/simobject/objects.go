package simobject

import (
	"sort"
	"time"
)

// OutdatedPendingThreshold is how long an add may stay unconfirmed.
const OutdatedPendingThreshold = 5000 * time.Millisecond

// Objects owns the sim objects, keyed by callsign. It never holds two objects
// with the same valid object id. Removals are idempotent.
type Objects struct {
	byCallsign map[string]*Object
	threshold  time.Duration
}

// NewObjects creates an empty collection.
func NewObjects() *Objects {
	return &Objects{
		byCallsign: make(map[string]*Object),
		threshold:  OutdatedPendingThreshold,
	}
}

// SetOutdatedThreshold overrides OutdatedPendingThreshold.
func (c *Objects) SetOutdatedThreshold(d time.Duration) {
	if d > 0 {
		c.threshold = d
	}
}

// Len returns the number of objects of all types.
func (c *Objects) Len() int { return len(c.byCallsign) }

// Insert adds or replaces the object for its callsign. Another object
// claiming the same object id is dropped.
func (c *Objects) Insert(obj *Object) bool {
	if obj.IsInvalid() || obj.Callsign() == "" {
		return false
	}
	if obj.HasValidObjectID() {
		for cs, o := range c.byCallsign {
			if cs != obj.Callsign() && o.HasValidObjectID() && o.ObjectID() == obj.ObjectID() {
				delete(c.byCallsign, cs)
			}
		}
	}
	c.byCallsign[obj.Callsign()] = obj
	return true
}

// Get returns the object of callsign.
func (c *Objects) Get(callsign string) (*Object, bool) {
	o, ok := c.byCallsign[callsign]
	return o, ok
}

// Contains reports whether callsign has an object.
func (c *Objects) Contains(callsign string) bool {
	_, ok := c.byCallsign[callsign]
	return ok
}

// Remove deletes the object of callsign.
func (c *Objects) Remove(callsign string) bool {
	if _, ok := c.byCallsign[callsign]; !ok {
		return false
	}
	delete(c.byCallsign, callsign)
	return true
}

// RemoveByObjectID deletes the object with the given simulator id.
func (c *Objects) RemoveByObjectID(objectID uint32) bool {
	obj := c.ForObjectID(objectID)
	if obj.IsInvalid() {
		return false
	}
	return c.Remove(obj.Callsign())
}

// RemoveByOtherSimObject deletes the entry other stands for: same callsign,
// or same valid object id.
func (c *Objects) RemoveByOtherSimObject(other *Object) bool {
	if other.IsInvalid() {
		return false
	}
	if c.Remove(other.Callsign()) {
		return true
	}
	if other.HasValidObjectID() {
		return c.RemoveByObjectID(other.ObjectID())
	}
	return false
}

// RemoveCallsigns deletes several objects and returns how many existed.
func (c *Objects) RemoveCallsigns(callsigns ...string) int {
	n := 0
	for _, cs := range callsigns {
		if c.Remove(cs) {
			n++
		}
	}
	return n
}

// Clear drops everything, e.g. on disconnect.
func (c *Objects) Clear() {
	c.byCallsign = make(map[string]*Object)
}

// ForObjectID returns the object with the simulator id or the invalid object.
func (c *Objects) ForObjectID(objectID uint32) *Object {
	for _, o := range c.byCallsign {
		if o.HasValidObjectID() && o.ObjectID() == objectID {
			return o
		}
	}
	return &Object{}
}

// ForRequestID returns the object with the base request id or the invalid object.
func (c *Objects) ForRequestID(requestID uint32) *Object {
	for _, o := range c.byCallsign {
		if o.HasValidRequestID() && o.RequestID() == requestID {
			return o
		}
	}
	return &Object{}
}

// RemoveOutdatedPendingAdded removes objects of typ that are still pending
// added after the threshold, relative to now, and returns them.
func (c *Objects) RemoveOutdatedPendingAdded(typ Type, now time.Time) []*Object {
	var removed []*Object
	for cs, o := range c.byCallsign {
		if !matches(o, typ) || !o.IsOutdatedPendingAdded(c.threshold, now) {
			continue
		}
		removed = append(removed, o)
		delete(c.byCallsign, cs)
	}
	sortByCreated(removed)
	return removed
}

// ByType returns the objects of typ, oldest first.
func (c *Objects) ByType(typ Type) []*Object {
	return c.filter(func(o *Object) bool { return matches(o, typ) })
}

// Aircraft returns all aircraft objects, oldest first.
func (c *Objects) Aircraft() []*Object { return c.ByType(Aircraft) }

// Probes returns all terrain probes, oldest first.
func (c *Objects) Probes() []*Object { return c.ByType(TerrainProbe) }

// PendingAdded returns objects of typ not yet confirmed.
func (c *Objects) PendingAdded(typ Type) []*Object {
	return c.filter(func(o *Object) bool { return matches(o, typ) && o.IsPendingAdded() && !o.IsPendingRemoved() })
}

// PendingRemoved returns objects of typ with a removal in flight.
func (c *Objects) PendingRemoved(typ Type) []*Object {
	return c.filter(func(o *Object) bool { return matches(o, typ) && o.IsPendingRemoved() })
}

// ConfirmedAdded returns objects of typ that are confirmed.
func (c *Objects) ConfirmedAdded(typ Type) []*Object {
	return c.filter(func(o *Object) bool { return matches(o, typ) && o.IsConfirmedAdded() })
}

// ContainsPendingAdded reports whether any object of typ waits for confirmation.
func (c *Objects) ContainsPendingAdded(typ Type) bool {
	for _, o := range c.byCallsign {
		if matches(o, typ) && o.IsPendingAdded() && !o.IsPendingRemoved() {
			return true
		}
	}
	return false
}

// CountPendingAdded counts unconfirmed objects of typ.
func (c *Objects) CountPendingAdded(typ Type) int { return len(c.PendingAdded(typ)) }

// CountConfirmedAdded counts confirmed objects of typ.
func (c *Objects) CountConfirmedAdded(typ Type) int { return len(c.ConfirmedAdded(typ)) }

// Oldest returns the object of typ created first, or the invalid object.
func (c *Objects) Oldest(typ Type) *Object {
	objs := c.ByType(typ)
	if len(objs) == 0 {
		return &Object{}
	}
	return objs[0]
}

// Callsigns returns the callsigns of typ, sorted.
func (c *Objects) Callsigns(typ Type) []string {
	var cs []string
	for k, o := range c.byCallsign {
		if matches(o, typ) {
			cs = append(cs, k)
		}
	}
	sort.Strings(cs)
	return cs
}

func (c *Objects) filter(keep func(*Object) bool) []*Object {
	var out []*Object
	for _, o := range c.byCallsign {
		if keep(o) {
			out = append(out, o)
		}
	}
	sortByCreated(out)
	return out
}

func matches(o *Object, typ Type) bool {
	return typ == AllTypes || o.Type() == typ
}

func sortByCreated(objs []*Object) {
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].Created().Equal(objs[j].Created()) {
			return objs[i].Callsign() < objs[j].Callsign()
		}
		return objs[i].Created().Before(objs[j].Created())
	})
}
