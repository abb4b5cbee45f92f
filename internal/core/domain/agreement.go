package domain

import "time"

// AgreementState mirrors the lifecycle of a transfer agreement. Only active
// agreements authorize new shipments.
type AgreementState string

const (
	AgreementUnderReview AgreementState = "under_review"
	AgreementAccepted    AgreementState = "accepted"
	AgreementRejected    AgreementState = "rejected"
	AgreementCanceled    AgreementState = "canceled"
	AgreementExpired     AgreementState = "expired"
)

// TransferAgreement authorizes shipments between two organisations' bases.
// It is referenced at shipment creation; its own lifecycle is managed
// elsewhere.
type TransferAgreement struct {
	ID                 string         `json:"id" bson:"_id,omitempty"`
	State              AgreementState `json:"state" bson:"state"`
	SourceOrganisation Organisation   `json:"source_organisation" bson:"source_organisation"`
	TargetOrganisation Organisation   `json:"target_organisation" bson:"target_organisation"`
	ValidFrom          time.Time      `json:"valid_from" bson:"valid_from"`
	ValidUntil         *time.Time     `json:"valid_until,omitempty" bson:"valid_until,omitempty"`
}

// Authorizes reports whether the agreement currently permits a shipment from
// sourceOrg to targetOrg at the given instant.
func (a *TransferAgreement) Authorizes(sourceOrgID, targetOrgID string, at time.Time) bool {
	if a.State != AgreementAccepted {
		return false
	}
	if at.Before(a.ValidFrom) {
		return false
	}
	if a.ValidUntil != nil && at.After(*a.ValidUntil) {
		return false
	}
	return a.SourceOrganisation.ID == sourceOrgID && a.TargetOrganisation.ID == targetOrgID
}
