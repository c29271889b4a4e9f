package email

const (
	subjectLeadAssignedFmt = "🔔 New Lead Assigned: %s"
	signOff                = "Titans"
)
