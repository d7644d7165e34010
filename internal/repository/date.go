package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"smarttaskflow/internal/model"
)

// toPgDate 日历日期按字段写入，不经过任何时区换算
func toPgDate(d *model.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func fromPgDate(d pgtype.Date) *model.Date {
	if !d.Valid {
		return nil
	}
	v := model.DateOf(d.Time)
	return &v
}
