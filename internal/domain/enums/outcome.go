package enums

type StartResult string

const (
	StartResultQueued             StartResult = "QUEUED"
	StartResultAlreadyWaiting     StartResult = "ALREADY_WAITING"
	StartResultIneligibleCohort   StartResult = "INELIGIBLE_COHORT"
	StartResultNoDeclarations     StartResult = "NO_DECLARATIONS"
	StartResultMatchedImmediately StartResult = "MATCHED_IMMEDIATELY"
)

type ConsentResult string

const (
	ConsentResultWaiting         ConsentResult = "WAITING"
	ConsentResultConfirmed       ConsentResult = "CONFIRMED"
	ConsentResultCanceled        ConsentResult = "CANCELED"
	ConsentResultAlreadyAnswered ConsentResult = "ALREADY_ANSWERED"
)
