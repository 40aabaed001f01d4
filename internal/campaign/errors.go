package campaign

import "fmt"

// ValidationError reports invalid user input: a bad argument combination or
// an unparseable schedule time.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// usageReason describes the four valid argument shapes accepted by
// ProcessRequest.
const usageReason = `invalid argument combination; you can pass:
1. no arguments to get a list of campaigns
2. just a campaign ID to get the details for that campaign
3. all arguments except a campaign ID to create a new campaign
4. all arguments including a campaign ID to replace an existing campaign`

// ConflictError reports an attempt to create a campaign whose subject
// already exists. The existing campaign is surfaced so the caller can decide
// to update it by ID instead.
type ConflictError struct {
	Existing Summary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"a campaign with the subject %q already exists "+
			"(id=%s, subject=%s, scheduled_at=%s, from=%s, status=%s); "+
			"to update this campaign, provide its campaign ID",
		e.Existing.Subject, e.Existing.CampaignID, e.Existing.Subject,
		e.Existing.ScheduledAt, e.Existing.From, e.Existing.Status,
	)
}

// InvalidStateError reports an update attempted on a campaign that is no
// longer in draft status.
type InvalidStateError struct {
	CampaignID string
	Status     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf(
		"campaign %s cannot be updated because its status is %q; only campaigns in draft status can be updated",
		e.CampaignID, e.Status,
	)
}

// NotFoundError reports a remote resource that could not be resolved.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found for %s", e.Resource, e.Key)
}
