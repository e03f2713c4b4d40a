package enums

// ActorKind distinguishes background-job initiated mutations from human ones. Every
// ledger mutation carries an explicit actor; nothing is implied by ambient context.
type ActorKind string

const (
	ActorKindSystem ActorKind = "system"
	ActorKindUser   ActorKind = "user"
)

// String implements fmt.Stringer.
func (a ActorKind) String() string {
	return string(a)
}
