// internal/domain/presence/presence.go

package presence

// Location is a WGS84 coordinate pair in degrees. Values are relayed
// exactly as received; no range validation is performed anywhere, so
// callers must not assume coordinates fall within [-90,90]/[-180,180].
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record is the last-known location of a currently reporting connection.
// A record is created on the first location update from an identity (not
// on connect), replaced on every subsequent update, and destroyed when
// the identity disconnects.
type Record struct {
	Identity string
	Location Location
}

// Registry holds at most one Record per reporting identity. It has no
// bulk read API: its state is observed only through the update/remove
// lifecycle and the broadcasts those operations trigger.
type Registry interface {
	// Upsert inserts or replaces the record for identity and returns
	// the resulting record. Last writer wins.
	Upsert(identity string, loc Location) Record

	// Remove deletes the record for identity, reporting whether a
	// record existed. Removing an absent identity is a no-op, not an
	// error.
	Remove(identity string) bool
}
