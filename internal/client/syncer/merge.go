package syncer

import (
	"sort"

	"github.com/Sarrabentardeit/Auditalex/internal/client/draft"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
)

// MergeResult is the reconciled audit list plus the local copies to drop.
type MergeResult struct {
	Records []draft.Record
	Purged  []draft.AuditID
}

// MergeAudits reconciles the server list with local copies for who.
//
// Server records always win. A local placeholder is purged once a server
// record with the same reconciliation key exists, and a local copy of a
// persisted audit is purged once the server no longer has it. Only in-progress
// and completed audits are listed, and non-admin callers only see their own.
// Server records come first in server order, then the remaining placeholders,
// most recently updated first.
func MergeAudits(server []entities.Audit, local []draft.Record, who entities.Identity) MergeResult {
	serverIDs := make(map[string]struct{}, len(server))
	serverKeys := make(map[string]struct{}, len(server))
	for _, a := range server {
		serverIDs[a.ID] = struct{}{}
		serverKeys[a.ReconciliationKey()] = struct{}{}
	}

	var res MergeResult
	for _, a := range server {
		if !listable(a, who) {
			continue
		}
		a.Synced = true
		res.Records = append(res.Records, draft.Record{ID: draft.Persisted(a.ID), Audit: a})
	}

	var drafts []draft.Record
	for _, rec := range local {
		switch {
		case rec.ID.IsPersisted():
			if _, ok := serverIDs[rec.ID.Key()]; !ok {
				res.Purged = append(res.Purged, rec.ID)
			}
		case rec.ID.IsPlaceholder():
			if _, ok := serverKeys[rec.Audit.ReconciliationKey()]; ok {
				res.Purged = append(res.Purged, rec.ID)
				continue
			}
			if listable(rec.Audit, who) {
				drafts = append(drafts, rec)
			}
		}
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].Audit.UpdatedAt.After(drafts[j].Audit.UpdatedAt)
	})
	res.Records = append(res.Records, drafts...)
	return res
}

// VisibleLocal filters local copies the same way MergeAudits filters the
// server list. It serves the list when the audit store is unreachable.
func VisibleLocal(local []draft.Record, who entities.Identity) []draft.Record {
	var out []draft.Record
	for _, rec := range local {
		if listable(rec.Audit, who) {
			out = append(out, rec)
		}
	}
	return out
}

func listable(a entities.Audit, who entities.Identity) bool {
	if a.Status != entities.AuditStatusInProgress && a.Status != entities.AuditStatusCompleted {
		return false
	}
	return who.CanAccess(a)
}
