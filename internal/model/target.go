// internal/model/target.go
package model

import (
	"fmt"
	"strings"
)

// Audience is a well-known broadcast target.
type Audience string

const (
	AudienceAll         Audience = "all"
	AudienceMembers     Audience = "members"
	AudienceVisitors    Audience = "visitors"
	AudienceNewConverts Audience = "new-converts"
	AudienceVolunteers  Audience = "volunteers"
	AudienceLeaders     Audience = "leaders"
)

var knownAudiences = map[Audience]bool{
	AudienceAll:         true,
	AudienceMembers:     true,
	AudienceVisitors:    true,
	AudienceNewConverts: true,
	AudienceVolunteers:  true,
	AudienceLeaders:     true,
}

// DistributionTarget is either a known audience or a roster id.
type DistributionTarget struct {
	Audience Audience
	RosterID string
}

// ParseTarget maps a raw target string onto an audience tag, falling back
// to treating it as a roster id.
func ParseTarget(raw string) (DistributionTarget, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DistributionTarget{}, fmt.Errorf("distribution target is empty")
	}
	if a := Audience(strings.ToLower(s)); knownAudiences[a] {
		return DistributionTarget{Audience: a}, nil
	}
	return DistributionTarget{RosterID: s}, nil
}

func (t DistributionTarget) IsRoster() bool {
	return t.Audience == "" && t.RosterID != ""
}

func (t DistributionTarget) String() string {
	if t.IsRoster() {
		return "roster:" + t.RosterID
	}
	return string(t.Audience)
}
