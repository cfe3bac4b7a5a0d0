package storage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
	"github.com/MarkMiraclee/purchaseorder/internal/query"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const orderColumns = "id, username, name, status, line_items, total_amount::text, created_at, updated_at"

type PostgresStorage struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, log *logrus.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	storage := &PostgresStorage{pool: pool, log: log}
	if err := storage.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

func (s *PostgresStorage) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if s.log != nil {
		goose.SetLogger(s.log)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() {
	s.pool.Close()
}

func (s *PostgresStorage) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, username, password_hash, created_at FROM users WHERE lower(username) = lower($1)", username).
		Scan(&user.ID, &user.Name, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (s *PostgresStorage) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))", username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *PostgresStorage) InsertUser(ctx context.Context, user models.User) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"INSERT INTO users (id, name, username, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Name, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) FindOrderByID(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM purchase_orders WHERE id = $1", id)
	return s.scanOrderRow(row)
}

func (s *PostgresStorage) FindOrderByIDAndOwner(ctx context.Context, id, owner string) (*models.PurchaseOrder, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM purchase_orders WHERE id = $1 AND username = $2", id, owner)
	return s.scanOrderRow(row)
}

func (s *PostgresStorage) scanOrderRow(row pgx.Row) (*models.PurchaseOrder, error) {
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

func (s *PostgresStorage) InsertOrder(ctx context.Context, order models.PurchaseOrder) (int64, error) {
	items, err := json.Marshal(lineItemsOrEmpty(order.LineItems))
	if err != nil {
		return 0, fmt.Errorf("marshal line items: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO purchase_orders (id, username, name, status, line_items, total_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)`,
		order.ID, order.Username, order.Name, string(order.Status), items, order.TotalAmount.String(),
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) UpdateOrder(ctx context.Context, order models.PurchaseOrder) (int64, error) {
	items, err := json.Marshal(lineItemsOrEmpty(order.LineItems))
	if err != nil {
		return 0, fmt.Errorf("marshal line items: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE purchase_orders
		 SET name = $1, status = $2, line_items = $3, total_amount = $4::numeric, updated_at = $5
		 WHERE id = $6 AND username = $7`,
		order.Name, string(order.Status), items, order.TotalAmount.String(), order.UpdatedAt,
		order.ID, order.Username)
	if err != nil {
		return 0, fmt.Errorf("update order: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStorage) CountOrders(ctx context.Context, c query.Criteria) (int64, error) {
	where, args := whereClause(c)

	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM purchase_orders"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context, c query.Criteria, limit, offset int) ([]models.PurchaseOrder, error) {
	where, args := whereClause(c)

	direction := "ASC"
	if c.Descending {
		direction = "DESC"
	}
	args = append(args, limit, offset)
	sql := fmt.Sprintf("SELECT %s FROM purchase_orders%s ORDER BY created_at %s, id %s LIMIT $%d OFFSET $%d",
		orderColumns, where, direction, direction, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.PurchaseOrder, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func whereClause(c query.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if c.Owner != "" {
		add("username = $%d", c.Owner)
	}
	if c.Name != "" {
		add("name ILIKE '%%' || $%d || '%%'", likeEscaper.Replace(c.Name))
	}
	if c.Status != "" {
		add("status = $%d", string(c.Status))
	}
	if c.From != nil {
		add("created_at >= $%d", *c.From)
	}
	if c.To != nil {
		add("created_at <= $%d", *c.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row pgx.Row) (*models.PurchaseOrder, error) {
	var (
		order  models.PurchaseOrder
		status string
		items  []byte
		total  string
	)
	if err := row.Scan(&order.ID, &order.Username, &order.Name, &status, &items, &total,
		&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}

	order.Status = models.Status(status)
	if err := json.Unmarshal(items, &order.LineItems); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	order.TotalAmount = amount
	order.CreatedAt = order.CreatedAt.UTC()
	if order.UpdatedAt != nil {
		updated := order.UpdatedAt.UTC()
		order.UpdatedAt = &updated
	}
	return &order, nil
}

func lineItemsOrEmpty(items []models.LineItem) []models.LineItem {
	if items == nil {
		return []models.LineItem{}
	}
	return items
}
