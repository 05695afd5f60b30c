package email

const (
	subjectNewLeadFmt       = "New %s request in %s, %s"
	subjectLeadAssignedFmt  = "Lead assigned: %s in %s"
	subjectLeadPurchasedFmt = "Your lead purchase: %s in %s"
	subjectOversoldFmt      = "Refund required: lead %s was oversold"
	subjectLeadAvailableFmt = "New %s lead available in %s, %s"
	subjectCreditsGranted   = "Lead credits added to your account"
)
