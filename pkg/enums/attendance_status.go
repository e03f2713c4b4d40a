package enums

// AttendanceStatus records how a student showed up to a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Counts reports whether this attendance earns the teacher per-student pay.
func (s AttendanceStatus) Counts() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate
}
