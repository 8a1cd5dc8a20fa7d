package service

import (
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// Diff computes the actions that move existing towards desired.
//
// Records are compared by Identity; when existing holds several records with
// one identity the last wins. Creates require OverwriteAll, deletes require
// DeleteExtra and never touch NS/SOA. An empty desired set never yields deletes.
func Diff(desired, existing []entity.Record, opts valueobject.SyncOptions) entity.Actions {
	var actions entity.Actions

	byIdentity := make(map[entity.Identity]*entity.Record, len(existing))
	for i := range existing {
		byIdentity[existing[i].Identity()] = &existing[i]
	}

	wanted := make(map[entity.Identity]struct{}, len(desired))
	for i := range desired {
		d := desired[i]
		id := d.Identity()
		wanted[id] = struct{}{}

		cur, found := byIdentity[id]
		switch {
		case found && !d.SameValues(cur):
			d.ID = cur.ID
			if d.ZoneName == "" {
				d.ZoneName = cur.ZoneName
			}
			old := *cur
			actions.Updates = append(actions.Updates, entity.Change{
				Type:     entity.ChangeTypeUpdate,
				Record:   d,
				Existing: &old,
			})
		case found:
		case opts.OverwriteAll:
			d.ID = ""
			actions.Creates = append(actions.Creates, entity.Change{
				Type:   entity.ChangeTypeCreate,
				Record: d,
			})
		}
	}

	if opts.DeleteExtra && len(desired) > 0 {
		for i := range existing {
			e := existing[i]
			if e.Type.Protected() {
				continue
			}
			if _, ok := wanted[e.Identity()]; ok {
				continue
			}
			actions.Deletes = append(actions.Deletes, entity.Change{
				Type:   entity.ChangeTypeDelete,
				Record: e,
			})
		}
	}

	return actions
}
