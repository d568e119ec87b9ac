package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/zoobzio/shroud"
	"github.com/zoobzio/shroud/internal/logger"
	"github.com/zoobzio/shroud/models"
)

const contactsTable = "contacts"

var contactColumns = []string{"id", "name", "tel"}

// ContactRepository persists contacts. Sensitive fields pass through the
// configured Hooks on every write and read.
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) (int64, error)
	CreateBatch(ctx context.Context, contacts []*models.Contact) ([]int64, error)
	Update(ctx context.Context, id int64, contact *models.Contact) error
	Get(ctx context.Context, id int64) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// contactRepository is the database/sql implementation of ContactRepository.
//
// Writes encrypt a copy of the caller's contact, so the caller keeps its
// plaintext. Reads return decrypted contacts.
type contactRepository struct {
	db     *DB
	hooks  Hooks
	logger *logger.Logger
}

// NewContactRepository constructs a ContactRepository over db.
func NewContactRepository(db *DB, hooks Hooks, logger *logger.Logger) ContactRepository {
	logger.Debug().Msg("creating contact repository")
	return &contactRepository{
		db:     db,
		hooks:  hooks,
		logger: logger,
	}
}

// Create inserts contact and sets its ID.
func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) (int64, error) {
	log := logger.FromContextOr(ctx, r.logger)

	row := *contact
	if _, err := r.hooks.BeforeWrite(ctx, &row); err != nil {
		log.Err(err).Str("func", "*contactRepository.Create").Msg("error encrypting contact")
		return 0, fmt.Errorf("%w: %w", ErrHook, err)
	}

	id, err := r.insert(ctx, r.db, &row)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Create").Msg("error inserting contact")
		return 0, err
	}

	contact.ID = id
	return id, nil
}

// CreateBatch inserts contacts in one transaction and sets their IDs.
// Either every contact is stored or none is.
func (r *contactRepository) CreateBatch(ctx context.Context, contacts []*models.Contact) ([]int64, error) {
	log := logger.FromContextOr(ctx, r.logger)

	rows := make([]*models.Contact, len(contacts))
	for i, c := range contacts {
		if c == nil {
			return nil, fmt.Errorf("%w: contact %d is nil", ErrBuildingSQLQuery, i)
		}
		copied := *c
		rows[i] = &copied
	}

	if _, err := r.hooks.BeforeWrite(ctx, shroud.Params{"contacts": rows}); err != nil {
		log.Err(err).Str("func", "*contactRepository.CreateBatch").Msg("error encrypting contacts")
		return nil, fmt.Errorf("%w: %w", ErrHook, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.CreateBatch").Msg("error beginning transaction")
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	ids := make([]int64, len(rows))
	for i, row := range rows {
		id, err := r.insert(ctx, tx, row)
		if err != nil {
			log.Err(err).Str("func", "*contactRepository.CreateBatch").Int("index", i).Msg("error inserting contact")
			return nil, err
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).Str("func", "*contactRepository.CreateBatch").Msg("error committing transaction")
		return nil, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	for i, c := range contacts {
		c.ID = ids[i]
	}
	return ids, nil
}

// Update overwrites the name and tel of the contact with id.
func (r *contactRepository) Update(ctx context.Context, id int64, contact *models.Contact) error {
	log := logger.FromContextOr(ctx, r.logger)

	row := *contact
	if _, err := r.hooks.BeforeWrite(ctx, shroud.Params{"id": id, "contact": &row}); err != nil {
		log.Err(err).Str("func", "*contactRepository.Update").Msg("error encrypting contact")
		return fmt.Errorf("%w: %w", ErrHook, err)
	}

	query, args, err := r.db.builder.
		Update(contactsTable).
		Set("name", row.Name).
		Set("tel", row.Tel).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Update").Msg("error updating contact")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return expectAffected(res)
}

// Get returns the contact with id, decrypted.
func (r *contactRepository) Get(ctx context.Context, id int64) (*models.Contact, error) {
	log := logger.FromContextOr(ctx, r.logger)

	query, args, err := r.db.builder.
		Select(contactColumns...).
		From(contactsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var contact models.Contact
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&contact.ID, &contact.Name, &contact.Tel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Get").Msg("error scanning contact")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if _, err := r.hooks.AfterRead(ctx, &contact); err != nil {
		log.Err(err).Str("func", "*contactRepository.Get").Int64("id", id).Msg("error decrypting contact")
		return nil, fmt.Errorf("%w: %w", ErrHook, err)
	}

	return &contact, nil
}

// List returns every contact ordered by id, decrypted.
func (r *contactRepository) List(ctx context.Context) ([]models.Contact, error) {
	log := logger.FromContextOr(ctx, r.logger)

	query, args, err := r.db.builder.
		Select(contactColumns...).
		From(contactsTable).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.List").Msg("error querying contacts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Tel); err != nil {
			log.Err(err).Str("func", "*contactRepository.List").Msg("error scanning contact")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	if _, err := r.hooks.AfterRead(ctx, contacts); err != nil {
		log.Err(err).Str("func", "*contactRepository.List").Msg("error decrypting contacts")
		return nil, fmt.Errorf("%w: %w", ErrHook, err)
	}

	return contacts, nil
}

// Delete removes the contact with id.
func (r *contactRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOr(ctx, r.logger)

	query, args, err := r.db.builder.
		Delete(contactsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Delete").Msg("error deleting contact")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return expectAffected(res)
}

// queryRower is satisfied by *DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *contactRepository) insert(ctx context.Context, q queryRower, row *models.Contact) (int64, error) {
	query, args, err := r.db.builder.
		Insert(contactsTable).
		Columns("name", "tel").
		Values(row.Name, row.Tel).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return id, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
