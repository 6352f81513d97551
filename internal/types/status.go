package types

// Status is a type for the lifecycle status of a persisted resource. This is
// used to soft-delete rows and to determine if they should be included in
// queries.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}
