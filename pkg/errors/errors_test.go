package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"gorm 重复键", gorm.ErrDuplicatedKey, ErrUniqueViolation},
		{"gorm 外键", gorm.ErrForeignKeyViolated, ErrForeignKeyViolation},
		{"postgres 23505", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"postgres 23503 包装", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), ErrForeignKeyViolation},
		{"mysql 1062", &mysql.MySQLError{Number: 1062}, ErrUniqueViolation},
		{"mysql 1452", &mysql.MySQLError{Number: 1452}, ErrForeignKeyViolation},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: areas.code (2067)"), ErrUniqueViolation},
		{"sqlite fk", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ErrForeignKeyViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
			if !errors.Is(got, tt.err) {
				t.Error("翻译后的错误应保留原始错误")
			}
		})
	}
}

func TestTranslate_Passthrough(t *testing.T) {
	if Translate(nil) != nil {
		t.Error("nil 应原样返回")
	}
	other := errors.New("connection refused")
	if got := Translate(other); got != other {
		t.Errorf("非约束错误应原样返回，实际 %v", got)
	}
	if IsUniqueViolation(gorm.ErrRecordNotFound) {
		t.Error("ErrRecordNotFound 不是唯一约束冲突")
	}
}
