// internal/model/campaign.go
package model

// CampaignReport is the audit view of one broadcast.
type CampaignReport struct {
	CampaignID string                 `json:"campaign_id"`
	Records    []DeliveryRecord       `json:"records"`
	Stats      map[DeliveryStatus]int `json:"stats"`
	Dispatch   *DispatchTally         `json:"dispatch,omitempty"`
}

// DispatchTally counts gateway outcomes seen by this process.
type DispatchTally struct {
	Accepted int `json:"accepted"`
	Failed   int `json:"failed"`
}
