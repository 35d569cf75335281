package transform

import "keysnail/internal/key"

// ModMap rewrites one physical key to another before any other stage.
type ModMap map[key.Key]key.Key

// ConditionalModMap applies its table only when Condition matches.
type ConditionalModMap struct {
	Condition Condition
	Map       ModMap
}

// ModMapLayer is the default table plus an ordered list of overrides.
type ModMapLayer struct {
	Default     ModMap
	Conditional []ConditionalModMap
}

// Resolve returns the key k maps to. The first matching conditional table is
// used in place of the default one; a key missing from the chosen table maps
// to itself.
func (l *ModMapLayer) Resolve(k key.Key, class, device string) key.Key {
	table := l.Default
	for _, cm := range l.Conditional {
		if cm.Condition.Match(class, device) {
			table = cm.Map
			break
		}
	}
	if mapped, ok := table[k]; ok {
		return mapped
	}
	return k
}

// MultipurposeEntry is the tap and hold meaning of a dual-role key.
type MultipurposeEntry struct {
	Tap  key.Key
	Hold key.Key
}

// MultipurposeMap maps physical keys to their dual roles.
type MultipurposeMap map[key.Key]MultipurposeEntry

// ConditionalMultipurpose applies its table only when Condition matches.
type ConditionalMultipurpose struct {
	Condition Condition
	Map       MultipurposeMap
}

// MultipurposeLayer is the default table plus an ordered list of overrides.
type MultipurposeLayer struct {
	Default     MultipurposeMap
	Conditional []ConditionalMultipurpose
}

// Active returns the table in effect for the given window and device.
func (l *MultipurposeLayer) Active(class, device string) MultipurposeMap {
	for _, cm := range l.Conditional {
		if cm.Condition.Match(class, device) {
			return cm.Map
		}
	}
	return l.Default
}
