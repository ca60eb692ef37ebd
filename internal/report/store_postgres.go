package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cleanghana/internal/platform/metrics"
	"cleanghana/pkg/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id                TEXT PRIMARY KEY,
	collection_key    TEXT NOT NULL,
	record_type       TEXT NOT NULL,
	status            TEXT NOT NULL,
	latitude          DOUBLE PRECISION NOT NULL,
	longitude         DOUBLE PRECISION NOT NULL,
	address           TEXT NOT NULL,
	reporter_id       TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	waste_category    TEXT NOT NULL DEFAULT '',
	image_ref         TEXT NOT NULL DEFAULT '',
	material_type     TEXT NOT NULL DEFAULT '',
	quantity_estimate TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reports_collection_type_created_idx
	ON reports (collection_key, record_type, created_at DESC);
`

const recordColumns = `id, record_type, status, latitude, longitude, address,
	reporter_id, description, waste_category, image_ref, material_type,
	quantity_estimate, created_at`

// PostgresStore is the durable report store. Change notification between
// instances rides a Redis pub/sub channel: every committed write publishes a
// marker, every instance re-queries and pushes fresh snapshots to its own
// subscribers. Without Redis the store still fans out to local subscribers.
type PostgresStore struct {
	pool          *pgxpool.Pool
	rdb           *redis.Client
	collectionKey string
	channel       string
	instanceID    string
	hub           *hub
	logger        *slog.Logger
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewPostgresStore creates the schema if needed and starts the change
// listener. rdb may be nil for single-instance deployments; metrics may be
// nil.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client, collectionKey string, m *metrics.Metrics, logger *slog.Logger) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure reports schema: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &PostgresStore{
		pool:          pool,
		rdb:           rdb,
		collectionKey: collectionKey,
		channel:       "cleanghana:changes:" + collectionKey,
		instanceID:    uuid.NewString(),
		hub:           newHub(m),
		logger:        logger,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if rdb != nil {
		go s.listen(listenCtx)
	} else {
		close(s.done)
	}
	return s, nil
}

func (s *PostgresStore) Create(ctx context.Context, n NewRecord) (Record, error) {
	if err := n.Validate(); err != nil {
		return Record{}, err
	}
	initial, err := InitialStatus(n.Type)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:               uuid.NewString(),
		Type:             n.Type,
		Status:           initial,
		Location:         *n.Location,
		ReporterID:       n.ReporterID,
		Description:      n.Description,
		WasteCategory:    n.WasteCategory,
		ImageRef:         n.ImageRef,
		MaterialType:     n.MaterialType,
		QuantityEstimate: n.QuantityEstimate,
	}

	// created_at comes from the database so ordering is server-assigned.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reports (id, collection_key, record_type, status, latitude,
			longitude, address, reporter_id, description, waste_category,
			image_ref, material_type, quantity_estimate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		rec.ID, s.collectionKey, rec.Type, rec.Status,
		rec.Location.Latitude, rec.Location.Longitude, rec.Location.DisplayAddress,
		rec.ReporterID, rec.Description, rec.WasteCategory, rec.ImageRef,
		rec.MaterialType, rec.QuantityEstimate,
	)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("insert report: %w", err)
	}

	s.notifyChanged(ctx)
	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM reports WHERE id = $1 AND collection_key = $2`,
		id, s.collectionKey)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get report: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) (Snapshot, error) {
	return s.snapshot(ctx, f)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) (Record, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE reports SET status = $1
		WHERE id = $2 AND collection_key = $3
		RETURNING `+recordColumns,
		status, id, s.collectionKey)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("update report status: %w", err)
	}

	s.notifyChanged(ctx)
	return rec, nil
}

func (s *PostgresStore) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	return s.hub.subscribe(ctx, f, s.snapshot)
}

func (s *PostgresStore) Close() error {
	s.cancel()
	<-s.done
	s.hub.close()
	return nil
}

// notifyChanged pushes snapshots to local subscribers and tells the other
// instances to do the same.
func (s *PostgresStore) notifyChanged(ctx context.Context) {
	if err := s.hub.broadcast(ctx, s.snapshot); err != nil && !errors.Is(err, sentinel.ErrClosed) {
		s.logger.WarnContext(ctx, "snapshot fanout failed, subscribers keep last snapshot", "error", err)
	}
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, s.instanceID).Err(); err != nil {
		s.logger.WarnContext(ctx, "publish change marker failed", "error", err, "channel", s.channel)
	}
}

// listen re-broadcasts on change markers published by other instances.
func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.done)

	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			if msg.Payload == s.instanceID {
				// Own write, already broadcast synchronously.
				continue
			}
			if err := s.hub.broadcast(ctx, s.snapshot); err != nil && !errors.Is(err, sentinel.ErrClosed) {
				s.logger.WarnContext(ctx, "remote change fanout failed", "error", err)
			}
		}
	}
}

func (s *PostgresStore) snapshot(ctx context.Context, f Filter) (Snapshot, error) {
	query := `SELECT ` + recordColumns + ` FROM reports WHERE collection_key = $1`
	args := []any{s.collectionKey}
	if f.Type != "" {
		query += ` AND record_type = $2`
		args = append(args, f.Type)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		snap = append(snap, rec)
	}
	return snap, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Type, &rec.Status,
		&rec.Location.Latitude, &rec.Location.Longitude, &rec.Location.DisplayAddress,
		&rec.ReporterID, &rec.Description, &rec.WasteCategory, &rec.ImageRef,
		&rec.MaterialType, &rec.QuantityEstimate, &rec.CreatedAt)
	return rec, err
}
