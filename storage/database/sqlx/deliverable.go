package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/juror/core/deliverable"
)

const deliverableColumns = "id, project_id, title, due_at, jury_size, edit_window_minutes, link, jury_ids, created_at"

type deliverableRow struct {
	ID                string      `db:"id"`
	ProjectID         string      `db:"project_id"`
	Title             string      `db:"title"`
	DueAt             int64       `db:"due_at"`
	JurySize          int         `db:"jury_size"`
	EditWindowMinutes int         `db:"edit_window_minutes"`
	Link              null.String `db:"link"`
	JuryIDs           string      `db:"jury_ids"` // JSON array
	CreatedAt         int64       `db:"created_at"`
}

func (r deliverableRow) toDeliverable() (deliverable.Deliverable, error) {
	jury, err := decodeIDs(r.JuryIDs)
	if err != nil {
		return deliverable.Deliverable{}, err
	}
	return deliverable.Deliverable{
		ID:                r.ID,
		ProjectID:         r.ProjectID,
		Title:             r.Title,
		DueAt:             fromMillis(r.DueAt),
		JurySize:          r.JurySize,
		EditWindowMinutes: r.EditWindowMinutes,
		Link:              r.Link.String,
		JuryIDs:           jury,
		CreatedAt:         fromMillis(r.CreatedAt),
	}, nil
}

func toDeliverables(rows []deliverableRow) ([]deliverable.Deliverable, error) {
	ds := make([]deliverable.Deliverable, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDeliverable()
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

type deliverableRepository struct {
	db *sqlx.DB
}

var _ deliverable.Repository = (*deliverableRepository)(nil) // interface compliance check

func NewDeliverableRepository(db *sqlx.DB) *deliverableRepository {
	return &deliverableRepository{db: db}
}

func (repo *deliverableRepository) CreateDeliverable(ctx context.Context, d deliverable.Deliverable) (deliverable.Deliverable, error) {
	jury, err := encodeIDs(d.JuryIDs)
	if err != nil {
		return deliverable.Deliverable{}, err
	}
	q := repo.db.Rebind(`INSERT INTO deliverables (` + deliverableColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = repo.db.ExecContext(ctx, q,
		d.ID,
		d.ProjectID,
		d.Title,
		toMillis(d.DueAt),
		d.JurySize,
		d.EditWindowMinutes,
		null.NewString(d.Link, d.Link != ""),
		jury,
		toMillis(d.CreatedAt),
	)
	if err != nil {
		return deliverable.Deliverable{}, errors.Wrap(err, "inserting deliverable")
	}
	return repo.GetDeliverableByID(ctx, d.ID)
}

func (repo *deliverableRepository) GetDeliverableByID(ctx context.Context, id string) (deliverable.Deliverable, error) {
	var row deliverableRow
	q := repo.db.Rebind("SELECT " + deliverableColumns + " FROM deliverables WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return deliverable.Deliverable{}, trapNoRowsErr(errors.Wrap(err, "selecting deliverable"), deliverable.ErrNotFound)
	}
	return row.toDeliverable()
}

func (repo *deliverableRepository) QueryDeliverablesByProject(ctx context.Context, projectID string) ([]deliverable.Deliverable, error) {
	var rows []deliverableRow
	q := repo.db.Rebind("SELECT " + deliverableColumns + " FROM deliverables WHERE project_id = ? ORDER BY created_at, id")
	if err := repo.db.SelectContext(ctx, &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting deliverables")
	}
	return toDeliverables(rows)
}

func (repo *deliverableRepository) QueryAllDeliverables(ctx context.Context) ([]deliverable.Deliverable, error) {
	var rows []deliverableRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+deliverableColumns+" FROM deliverables ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "selecting deliverables")
	}
	return toDeliverables(rows)
}

func (repo *deliverableRepository) UpdateDeliverableLink(ctx context.Context, id, link string) (deliverable.Deliverable, error) {
	q := repo.db.Rebind("UPDATE deliverables SET link = ? WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, null.NewString(link, link != ""), id)
	if err != nil {
		return deliverable.Deliverable{}, errors.Wrap(err, "updating link")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return deliverable.Deliverable{}, deliverable.ErrNotFound
	}
	return repo.GetDeliverableByID(ctx, id)
}

// AssignJury is a compare-and-set on jury_ids: the update only matches while no jury is stored.
func (repo *deliverableRepository) AssignJury(ctx context.Context, id string, jurorIDs []string) (deliverable.Deliverable, bool, error) {
	jury, err := encodeIDs(jurorIDs)
	if err != nil {
		return deliverable.Deliverable{}, false, err
	}
	q := repo.db.Rebind("UPDATE deliverables SET jury_ids = ? WHERE id = ? AND jury_ids = '[]'")
	res, err := repo.db.ExecContext(ctx, q, jury, id)
	if err != nil {
		return deliverable.Deliverable{}, false, errors.Wrap(err, "assigning jury")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return deliverable.Deliverable{}, false, errors.Wrap(err, "assigning jury")
	}
	d, err := repo.GetDeliverableByID(ctx, id)
	if err != nil {
		return deliverable.Deliverable{}, false, err
	}
	return d, n == 1, nil
}
