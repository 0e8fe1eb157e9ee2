package rules

import "demos/internal/domain"

// ActionKind says whether a phase may be completed through completePhase.
type ActionKind int

const (
	ActionPermitted ActionKind = iota
	ActionNotPermitted
	ActionNotImplemented
)

func (k ActionKind) String() string {
	switch k {
	case ActionNotPermitted:
		return "Not Permitted"
	case ActionNotImplemented:
		return "Not Implemented"
	}
	return "Permitted"
}

// PhaseAction names the completion date of a phase and the phase it hands off to.
type PhaseAction struct {
	Kind           ActionKind
	DateToComplete domain.DateType
	NextPhase      domain.PhaseName
	DateToStart    domain.DateType
}

// HasNext reports whether completing the phase starts another one.
func (a PhaseAction) HasNext() bool { return a.NextPhase != "" }

var phaseActions = map[domain.PhaseName]PhaseAction{
	domain.PhaseConcept: {
		DateToComplete: domain.DateConceptCompletion,
		NextPhase:      domain.PhaseApplicationIntake,
		DateToStart:    domain.DateApplicationIntakeStart,
	},
	domain.PhaseApplicationIntake: {
		DateToComplete: domain.DateApplicationIntakeCompletion,
		NextPhase:      domain.PhaseCompleteness,
		DateToStart:    domain.DateCompletenessStart,
	},
	domain.PhaseCompleteness: {
		DateToComplete: domain.DateCompletenessCompletion,
	},
	domain.PhaseFederalComment: {Kind: ActionNotPermitted},
	domain.PhaseSDGPreparation: {
		DateToComplete: domain.DateSDGPreparationCompletion,
		NextPhase:      domain.PhaseReview,
		DateToStart:    domain.DateReviewStart,
	},
	domain.PhaseReview: {
		DateToComplete: domain.DateReviewCompletion,
		NextPhase:      domain.PhaseApprovalPackage,
		DateToStart:    domain.DateApprovalPackageStart,
	},
	domain.PhaseApprovalPackage: {
		DateToComplete: domain.DateApprovalPackageCompletion,
		NextPhase:      domain.PhaseApprovalSummary,
		DateToStart:    domain.DateApprovalSummaryStart,
	},
	domain.PhaseApprovalSummary: {
		DateToComplete: domain.DateApprovalSummaryCompletion,
	},
}

// Action returns the completion action of a phase. Unknown phases report
// ActionNotImplemented.
func Action(p domain.PhaseName) PhaseAction {
	a, ok := phaseActions[p]
	if !ok {
		return PhaseAction{Kind: ActionNotImplemented}
	}
	return a
}

// CompletionChecks lists what must exist before a phase can be completed.
type CompletionChecks struct {
	NoValidation  bool
	Dates         []domain.DateType
	DocumentTypes []domain.DocumentType
	Phases        []domain.PhaseName
}

var completionChecks = map[domain.PhaseName]CompletionChecks{
	domain.PhaseConcept: {
		Dates:         []domain.DateType{domain.DatePreSubmissionSubmitted},
		DocumentTypes: []domain.DocumentType{domain.DocPreSubmission},
	},
	domain.PhaseApplicationIntake: {
		Dates:         []domain.DateType{domain.DateStateApplicationSubmitted, domain.DateCompletenessReviewDue},
		DocumentTypes: []domain.DocumentType{domain.DocStateApplication},
	},
	domain.PhaseCompleteness: {
		Dates: []domain.DateType{
			domain.DateStateApplicationDeemedComplete,
			domain.DateFederalCommentPeriodStart,
			domain.DateFederalCommentPeriodEnd,
		},
		DocumentTypes: []domain.DocumentType{domain.DocCompletenessLetter, domain.DocInternalCompletenessReview},
		Phases:        []domain.PhaseName{domain.PhaseApplicationIntake},
	},
	domain.PhaseFederalComment: {NoValidation: true},
	domain.PhaseSDGPreparation: {
		Dates: []domain.DateType{
			domain.DateExpectedApproval,
			domain.DateSMEReview,
			domain.DateFRTInitialMeeting,
			domain.DateBNPMTInitialMeeting,
		},
		Phases: []domain.PhaseName{domain.PhaseApplicationIntake, domain.PhaseCompleteness, domain.PhaseFederalComment},
	},
	domain.PhaseReview: {
		Dates: []domain.DateType{
			domain.DateOGDApprovalToShare,
			domain.DateDraftApprovalPackageToPrep,
			domain.DateDDMEApprovalReceived,
			domain.DateStateConcurrence,
			domain.DateBNPMTApprovalToSendToOMB,
			domain.DateDraftApprovalPackageShared,
			domain.DateReceiveOMBConcurrence,
			domain.DateReceiveOGCLegalClearance,
		},
		Phases: []domain.PhaseName{
			domain.PhaseApplicationIntake,
			domain.PhaseCompleteness,
			domain.PhaseFederalComment,
			domain.PhaseSDGPreparation,
		},
	},
	domain.PhaseApprovalPackage: {
		DocumentTypes: []domain.DocumentType{
			domain.DocFinalBudgetNeutralityWorkbook,
			domain.DocQAndA,
			domain.DocSpecialTermsAndConditions,
			domain.DocFormalOMBPolicyConcurrence,
			domain.DocApprovalLetter,
			domain.DocSignedDecisionMemo,
		},
		Phases: []domain.PhaseName{
			domain.PhaseApplicationIntake,
			domain.PhaseCompleteness,
			domain.PhaseFederalComment,
			domain.PhaseSDGPreparation,
			domain.PhaseReview,
		},
	},
	domain.PhaseApprovalSummary: {
		Dates: []domain.DateType{domain.DateApplicationDetailsComplete, domain.DateDemonstrationTypesComplete},
		Phases: []domain.PhaseName{
			domain.PhaseApplicationIntake,
			domain.PhaseCompleteness,
			domain.PhaseFederalComment,
			domain.PhaseSDGPreparation,
			domain.PhaseReview,
			domain.PhaseApprovalPackage,
		},
	},
}

// Completion returns the completion preconditions of a phase.
func Completion(p domain.PhaseName) CompletionChecks {
	return completionChecks[p]
}

// phaseDates lists the date types owned by each phase. Setting an owned
// date starts the phase; finishing the phase locks its dates.
var phaseDates = buildPhaseDates()

func buildPhaseDates() map[domain.PhaseName][]domain.DateType {
	m := map[domain.PhaseName][]domain.DateType{
		domain.PhaseConcept:           {domain.DateConceptStart, domain.DateConceptCompletion, domain.DateConceptSkipped},
		domain.PhaseApplicationIntake: {domain.DateApplicationIntakeStart, domain.DateApplicationIntakeCompletion},
		domain.PhaseCompleteness:      {domain.DateCompletenessStart, domain.DateCompletenessCompletion},
		domain.PhaseFederalComment:    {domain.DateFederalCommentPeriodStart, domain.DateFederalCommentPeriodEnd},
		domain.PhaseSDGPreparation:    {domain.DateSDGPreparationStart, domain.DateSDGPreparationCompletion},
		domain.PhaseReview:            {domain.DateReviewStart, domain.DateReviewCompletion},
		domain.PhaseApprovalPackage:   {domain.DateApprovalPackageStart, domain.DateApprovalPackageCompletion},
		domain.PhaseApprovalSummary:   {domain.DateApprovalSummaryStart, domain.DateApprovalSummaryCompletion},
	}
	for phase, checks := range completionChecks {
		for _, dt := range checks.Dates {
			if !containsDate(m[phase], dt) {
				m[phase] = append(m[phase], dt)
			}
		}
	}
	return m
}

// PhaseDates returns the date types owned by p.
func PhaseDates(p domain.PhaseName) []domain.DateType {
	return phaseDates[p]
}

// OwningPhases returns every phase that owns dt, in workflow order.
func OwningPhases(dt domain.DateType) []domain.PhaseName {
	var out []domain.PhaseName
	for _, p := range domain.Phases {
		if containsDate(phaseDates[p], dt) {
			out = append(out, p)
		}
	}
	return out
}

var startDates = map[domain.PhaseName]domain.DateType{
	domain.PhaseConcept:           domain.DateConceptStart,
	domain.PhaseApplicationIntake: domain.DateApplicationIntakeStart,
	domain.PhaseCompleteness:      domain.DateCompletenessStart,
	domain.PhaseSDGPreparation:    domain.DateSDGPreparationStart,
	domain.PhaseReview:            domain.DateReviewStart,
	domain.PhaseApprovalPackage:   domain.DateApprovalPackageStart,
	domain.PhaseApprovalSummary:   domain.DateApprovalSummaryStart,
}

// StartDate returns the date type that stamps the start of p. Federal
// Comment has none.
func StartDate(p domain.PhaseName) (domain.DateType, bool) {
	dt, ok := startDates[p]
	return dt, ok
}

// FirstOwningPhase returns the earliest phase that owns dt.
func FirstOwningPhase(dt domain.DateType) (domain.PhaseName, bool) {
	owners := OwningPhases(dt)
	if len(owners) == 0 {
		return "", false
	}
	return owners[0], true
}

func containsDate(list []domain.DateType, dt domain.DateType) bool {
	for _, v := range list {
		if v == dt {
			return true
		}
	}
	return false
}
