package errors

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// 存储层约束冲突，与具体数据库驱动无关
var (
	ErrUniqueViolation     = errors.New("违反唯一约束")
	ErrForeignKeyViolation = errors.New("违反外键约束")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
	mysqlRowIsReferenced = 1451
)

// Translate 将驱动相关的约束错误归一化为 ErrUniqueViolation / ErrForeignKeyViolation。
// 其它错误原样返回；返回值通过 %w 保留原始错误，便于日志排查。
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrForeignKeyViolation) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return wrap(ErrUniqueViolation, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return wrap(ErrForeignKeyViolation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return wrap(ErrUniqueViolation, err)
		case pgForeignKeyViolation:
			return wrap(ErrForeignKeyViolation, err)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return wrap(ErrUniqueViolation, err)
		case mysqlNoReferencedRow, mysqlRowIsReferenced:
			return wrap(ErrForeignKeyViolation, err)
		}
		return err
	}

	// sqlite 驱动只暴露文本信息
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return wrap(ErrUniqueViolation, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return wrap(ErrForeignKeyViolation, err)
	}
	return err
}

// IsUniqueViolation 判断错误是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	return errors.Is(Translate(err), ErrUniqueViolation)
}

// IsForeignKeyViolation 判断错误是否为外键约束冲突
func IsForeignKeyViolation(err error) bool {
	return errors.Is(Translate(err), ErrForeignKeyViolation)
}

type constraintError struct {
	kind  error
	cause error
}

func (e *constraintError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *constraintError) Unwrap() []error { return []error{e.kind, e.cause} }

func wrap(kind, cause error) error {
	return &constraintError{kind: kind, cause: cause}
}
