package service

import (
	"sort"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// CandidateSnapshot is everything the ranking needs to know about one potential substitute.
type CandidateSnapshot struct {
	TeacherID            string
	SubjectID            string
	PeriodsToday         int
	CurrentSubstitutions int
	IsClassTeacher       bool
	// Busy is set when the teacher teaches, substitutes or is absent at the period.
	Busy bool
}

// EvaluationRequest describes the uncovered period being ranked.
type EvaluationRequest struct {
	SubjectID       string
	ClassTeacherID  string
	AbsentTeacherID string
	Exclude         []string
}

// RejectionReason names the first hard filter a candidate failed.
type RejectionReason string

const (
	RejectionNone          RejectionReason = ""
	RejectionAbsentTeacher RejectionReason = "ABSENT_TEACHER"
	RejectionExcluded      RejectionReason = "EXCLUDED_FOR_REQUEST"
	RejectionBelowMinimum  RejectionReason = "BELOW_MIN_SUBSTITUTIONS"
	RejectionAtCapacity    RejectionReason = "AT_MAX_SUBSTITUTIONS"
	RejectionOverloaded    RejectionReason = "DAILY_PERIODS_EXCEEDED"
	RejectionExclusionList RejectionReason = "ON_EXCLUSION_LIST"
	RejectionBusy          RejectionReason = "NOT_FREE"
)

// ScoredCandidate pairs an eligible snapshot with its score.
type ScoredCandidate struct {
	CandidateSnapshot
	Score int
}

// CheckEligibility applies the hard filters in order and reports the first failure.
func CheckEligibility(cfg models.AssignmentConfig, req EvaluationRequest, c CandidateSnapshot) RejectionReason {
	switch {
	case c.TeacherID == req.AbsentTeacherID:
		return RejectionAbsentTeacher
	case contains(req.Exclude, c.TeacherID):
		return RejectionExcluded
	case c.CurrentSubstitutions < cfg.MinSubstitutions:
		return RejectionBelowMinimum
	case c.CurrentSubstitutions >= cfg.MaxSubstitutions:
		return RejectionAtCapacity
	case c.PeriodsToday >= cfg.MaxDailyPeriods+1:
		return RejectionOverloaded
	case cfg.IsExcluded(c.TeacherID):
		return RejectionExclusionList
	case c.Busy:
		return RejectionBusy
	}
	return RejectionNone
}

// ScoreCandidate computes the additive ranking score. Higher is better.
func ScoreCandidate(cfg models.AssignmentConfig, req EvaluationRequest, c CandidateSnapshot) int {
	score := 0
	if req.SubjectID != "" && c.SubjectID == req.SubjectID {
		score += cfg.SubjectMatchWeight
	}
	if c.IsClassTeacher {
		score += cfg.ClassTeacherWeight
	}
	if c.PeriodsToday < cfg.FairnessBase {
		score += (cfg.FairnessBase - c.PeriodsToday) * cfg.FairnessStep
	}
	score -= c.CurrentSubstitutions * cfg.SubstitutionPenalty
	return score
}

// RankCandidates returns the eligible candidates best first: score descending, then fewer
// current substitutions, then teacher id so identical inputs always produce the same order.
func RankCandidates(cfg models.AssignmentConfig, req EvaluationRequest, candidates []CandidateSnapshot) []ScoredCandidate {
	ranked := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if CheckEligibility(cfg, req, c) != RejectionNone {
			continue
		}
		ranked = append(ranked, ScoredCandidate{CandidateSnapshot: c, Score: ScoreCandidate(cfg, req, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CurrentSubstitutions != b.CurrentSubstitutions {
			return a.CurrentSubstitutions < b.CurrentSubstitutions
		}
		return a.TeacherID < b.TeacherID
	})
	return ranked
}

// SelectBestCandidate returns the top-ranked eligible candidate, if any.
func SelectBestCandidate(cfg models.AssignmentConfig, req EvaluationRequest, candidates []CandidateSnapshot) (ScoredCandidate, bool) {
	ranked := RankCandidates(cfg, req, candidates)
	if len(ranked) == 0 {
		return ScoredCandidate{}, false
	}
	return ranked[0], true
}

// BuildCandidateSnapshots joins the roster with the day's workload and busy set.
// Teachers without a workload row start from zero.
func BuildCandidateSnapshots(teachers []models.Teacher, workloads []models.TeacherWorkload, busy map[string]struct{}, classTeacherID string) []CandidateSnapshot {
	byTeacher := make(map[string]models.TeacherWorkload, len(workloads))
	for _, w := range workloads {
		byTeacher[w.TeacherID] = w
	}
	snapshots := make([]CandidateSnapshot, 0, len(teachers))
	for _, t := range teachers {
		w := byTeacher[t.ID]
		_, isBusy := busy[t.ID]
		snapshots = append(snapshots, CandidateSnapshot{
			TeacherID:            t.ID,
			SubjectID:            t.PrimarySubject(),
			PeriodsToday:         w.PeriodsToday,
			CurrentSubstitutions: w.CurrentSubstitutions,
			IsClassTeacher:       classTeacherID != "" && t.ID == classTeacherID,
			Busy:                 isBusy,
		})
	}
	return snapshots
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func toSet(groups ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range groups {
		for _, v := range group {
			set[v] = struct{}{}
		}
	}
	return set
}
