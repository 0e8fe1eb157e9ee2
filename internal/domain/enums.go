package domain

import (
	"fmt"
	"strings"
)

// PhaseName identifies one stage of the application workflow.
type PhaseName string

const (
	PhaseConcept           PhaseName = "Concept"
	PhaseApplicationIntake PhaseName = "Application Intake"
	PhaseCompleteness      PhaseName = "Completeness"
	PhaseFederalComment    PhaseName = "Federal Comment"
	PhaseSDGPreparation    PhaseName = "SDG Preparation"
	PhaseReview            PhaseName = "Review"
	PhaseApprovalPackage   PhaseName = "Approval Package"
	PhaseApprovalSummary   PhaseName = "Approval Summary"
)

// Phases lists every phase in workflow order.
var Phases = []PhaseName{
	PhaseConcept,
	PhaseApplicationIntake,
	PhaseCompleteness,
	PhaseFederalComment,
	PhaseSDGPreparation,
	PhaseReview,
	PhaseApprovalPackage,
	PhaseApprovalSummary,
}

// Number returns the 1-based position of the phase, or 0 when unknown.
func (p PhaseName) Number() int {
	for i, name := range Phases {
		if name == p {
			return i + 1
		}
	}
	return 0
}

func (p PhaseName) IsValid() bool { return p.Number() > 0 }

func (p PhaseName) String() string { return string(p) }

func ParsePhaseName(s string) (PhaseName, error) {
	p := PhaseName(s)
	if !p.IsValid() {
		return "", &DeserializationError{Kind: "phase name", Value: s}
	}
	return p, nil
}

// Slug is the lower-case hyphenated form used in URLs, e.g. application-intake.
func (p PhaseName) Slug() string {
	return strings.ToLower(strings.ReplaceAll(string(p), " ", "-"))
}

// LookupPhase accepts a phase name or its slug.
func LookupPhase(raw string) (PhaseName, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range Phases {
		if string(p) == raw || p.Slug() == strings.ToLower(raw) {
			return p, nil
		}
	}
	return "", &DeserializationError{Kind: "phase name", Value: raw}
}

// PhaseStatus is the lifecycle state of one phase of one application.
type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "Not Started"
	PhaseStarted    PhaseStatus = "Started"
	PhaseCompleted  PhaseStatus = "Completed"
	PhaseSkipped    PhaseStatus = "Skipped"
)

var PhaseStatuses = []PhaseStatus{PhaseNotStarted, PhaseStarted, PhaseCompleted, PhaseSkipped}

func (s PhaseStatus) IsValid() bool {
	switch s {
	case PhaseNotStarted, PhaseStarted, PhaseCompleted, PhaseSkipped:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s PhaseStatus) IsTerminal() bool {
	return s == PhaseCompleted || s == PhaseSkipped
}

func (s PhaseStatus) String() string { return string(s) }

func ParsePhaseStatus(s string) (PhaseStatus, error) {
	st := PhaseStatus(s)
	if !st.IsValid() {
		return "", &DeserializationError{Kind: "phase status", Value: s}
	}
	return st, nil
}

// ExpectedTimestamp is the required time of day for a date type.
type ExpectedTimestamp string

const (
	StartOfDay ExpectedTimestamp = "Start of Day"
	EndOfDay   ExpectedTimestamp = "End of Day"
)

// DateType names a kind of milestone date tracked for an application.
type DateType string

const (
	DateConceptStart                   DateType = "Concept Start Date"
	DatePreSubmissionSubmitted         DateType = "Pre-Submission Submitted Date"
	DateConceptCompletion              DateType = "Concept Completion Date"
	DateConceptSkipped                 DateType = "Concept Skipped Date"
	DateApplicationIntakeStart         DateType = "Application Intake Start Date"
	DateStateApplicationSubmitted      DateType = "State Application Submitted Date"
	DateCompletenessReviewDue          DateType = "Completeness Review Due Date"
	DateApplicationIntakeCompletion    DateType = "Application Intake Completion Date"
	DateCompletenessStart              DateType = "Completeness Start Date"
	DateStateApplicationDeemedComplete DateType = "State Application Deemed Complete"
	DateFederalCommentPeriodStart      DateType = "Federal Comment Period Start Date"
	DateFederalCommentPeriodEnd        DateType = "Federal Comment Period End Date"
	DateCompletenessCompletion         DateType = "Completeness Completion Date"
	DateSDGPreparationStart            DateType = "SDG Preparation Start Date"
	DateExpectedApproval               DateType = "Expected Approval Date"
	DateSMEReview                      DateType = "SME Review Date"
	DateFRTInitialMeeting              DateType = "FRT Initial Meeting Date"
	DateBNPMTInitialMeeting            DateType = "BNPMT Initial Meeting Date"
	DateSDGPreparationCompletion       DateType = "SDG Preparation Completion Date"
	DateReviewStart                    DateType = "Review Start Date"
	DateOGDApprovalToShare             DateType = "OGD Approval to Share with SMEs"
	DateDraftApprovalPackageToPrep     DateType = "Draft Approval Package to Prep"
	DateDDMEApprovalReceived           DateType = "DDME Approval Received"
	DateStateConcurrence               DateType = "State Concurrence"
	DateBNPMTApprovalToSendToOMB       DateType = "BN PMT Approval to Send to OMB"
	DateDraftApprovalPackageShared     DateType = "Draft Approval Package Shared"
	DateReceiveOMBConcurrence          DateType = "Receive OMB Concurrence"
	DateReceiveOGCLegalClearance       DateType = "Receive OGC Legal Clearance"
	DateReviewCompletion               DateType = "Review Completion Date"
	DateApprovalPackageStart           DateType = "Approval Package Start Date"
	DateApprovalPackageCompletion      DateType = "Approval Package Completion Date"
	DateApprovalSummaryStart           DateType = "Approval Summary Start Date"
	DateApplicationDetailsComplete     DateType = "Application Details Marked Complete Date"
	DateDemonstrationTypesComplete     DateType = "Application Demonstration Types Marked Complete Date"
	DateApprovalSummaryCompletion      DateType = "Approval Summary Completion Date"
	DateEffective                      DateType = "Effective Date"
	DateExpiration                     DateType = "Expiration Date"
)

// DateTypes lists every date type in declaration order. Validation walks
// this order so the first reported violation is deterministic.
var DateTypes = []DateType{
	DateConceptStart,
	DatePreSubmissionSubmitted,
	DateConceptCompletion,
	DateConceptSkipped,
	DateApplicationIntakeStart,
	DateStateApplicationSubmitted,
	DateCompletenessReviewDue,
	DateApplicationIntakeCompletion,
	DateCompletenessStart,
	DateStateApplicationDeemedComplete,
	DateFederalCommentPeriodStart,
	DateFederalCommentPeriodEnd,
	DateCompletenessCompletion,
	DateSDGPreparationStart,
	DateExpectedApproval,
	DateSMEReview,
	DateFRTInitialMeeting,
	DateBNPMTInitialMeeting,
	DateSDGPreparationCompletion,
	DateReviewStart,
	DateOGDApprovalToShare,
	DateDraftApprovalPackageToPrep,
	DateDDMEApprovalReceived,
	DateStateConcurrence,
	DateBNPMTApprovalToSendToOMB,
	DateDraftApprovalPackageShared,
	DateReceiveOMBConcurrence,
	DateReceiveOGCLegalClearance,
	DateReviewCompletion,
	DateApprovalPackageStart,
	DateApprovalPackageCompletion,
	DateApprovalSummaryStart,
	DateApplicationDetailsComplete,
	DateDemonstrationTypesComplete,
	DateApprovalSummaryCompletion,
	DateEffective,
	DateExpiration,
}

var dateTypeIndex = func() map[DateType]int {
	m := make(map[DateType]int, len(DateTypes))
	for i, dt := range DateTypes {
		m[dt] = i
	}
	return m
}()

func (d DateType) IsValid() bool {
	_, ok := dateTypeIndex[d]
	return ok
}

// Index returns the declaration position of d, or -1 when unknown.
func (d DateType) Index() int {
	if i, ok := dateTypeIndex[d]; ok {
		return i
	}
	return -1
}

func (d DateType) String() string { return string(d) }

func ParseDateType(s string) (DateType, error) {
	d := DateType(s)
	if !d.IsValid() {
		return "", &DeserializationError{Kind: "date type", Value: s}
	}
	return d, nil
}

// DocumentType classifies an uploaded document.
type DocumentType string

const (
	DocPreSubmission                 DocumentType = "Pre-Submission"
	DocStateApplication              DocumentType = "State Application"
	DocCompletenessLetter            DocumentType = "Application Completeness Letter"
	DocInternalCompletenessReview    DocumentType = "Internal Completeness Review Form"
	DocFinalBudgetNeutralityWorkbook DocumentType = "Final Budget Neutrality Formulation Workbook"
	DocQAndA                         DocumentType = "Q&A"
	DocSpecialTermsAndConditions     DocumentType = "Special Terms & Conditions"
	DocFormalOMBPolicyConcurrence    DocumentType = "Formal OMB Policy Concurrence Email"
	DocApprovalLetter                DocumentType = "Approval Letter"
	DocSignedDecisionMemo            DocumentType = "Signed Decision Memo"
	DocGeneralFile                   DocumentType = "General File"
	DocPaymentRatioAnalysis          DocumentType = "Payment Ratio Analysis"
	DocFinalBNWorksheet              DocumentType = "Final BN Worksheet"
)

var DocumentTypes = []DocumentType{
	DocPreSubmission,
	DocStateApplication,
	DocCompletenessLetter,
	DocInternalCompletenessReview,
	DocFinalBudgetNeutralityWorkbook,
	DocQAndA,
	DocSpecialTermsAndConditions,
	DocFormalOMBPolicyConcurrence,
	DocApprovalLetter,
	DocSignedDecisionMemo,
	DocGeneralFile,
	DocPaymentRatioAnalysis,
	DocFinalBNWorksheet,
}

func (d DocumentType) IsValid() bool {
	for _, v := range DocumentTypes {
		if v == d {
			return true
		}
	}
	return false
}

func ParseDocumentType(s string) (DocumentType, error) {
	d := DocumentType(s)
	if !d.IsValid() {
		return "", &DeserializationError{Kind: "document type", Value: s}
	}
	return d, nil
}

type ApplicationType string

const (
	ApplicationDemonstration ApplicationType = "Demonstration"
	ApplicationAmendment     ApplicationType = "Amendment"
	ApplicationExtension     ApplicationType = "Extension"
)

func ParseApplicationType(s string) (ApplicationType, error) {
	switch t := ApplicationType(s); t {
	case ApplicationDemonstration, ApplicationAmendment, ApplicationExtension:
		return t, nil
	}
	return "", &DeserializationError{Kind: "application type", Value: s}
}

type ApplicationStatus string

const (
	StatusPreSubmission ApplicationStatus = "Pre-Submission"
	StatusUnderReview   ApplicationStatus = "Under Review"
	StatusApproved      ApplicationStatus = "Approved"
	StatusDenied        ApplicationStatus = "Denied"
	StatusWithdrawn     ApplicationStatus = "Withdrawn"
	StatusOnHold        ApplicationStatus = "On-hold"
)

func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case StatusPreSubmission, StatusUnderReview, StatusApproved, StatusDenied, StatusWithdrawn, StatusOnHold:
		return st, nil
	}
	return "", &DeserializationError{Kind: "application status", Value: s}
}

// DeserializationError reports a stored or submitted value outside its enum.
type DeserializationError struct {
	Kind  string
	Value string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}
