package enums

// PartyType identifies the kind of account on either side of a money transfer.
type PartyType string

const (
	PartyTypeBranchCashbox PartyType = "branch_cashbox"
	PartyTypeCenterWallet  PartyType = "center_wallet"
	PartyTypeTeacherWallet PartyType = "teacher_wallet"
)

// String implements fmt.Stringer.
func (p PartyType) String() string {
	return string(p)
}
