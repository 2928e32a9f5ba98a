package store

import (
	"fmt"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// fmtTime renders a timestamp the way both dialects accept as a parameter.
func fmtTime(t time.Time) string {
	return t.Format(timeLayout)
}

// dbTime scans a timestamp column from either dialect: SQLite hands back the
// TEXT representation, pgx hands back time.Time.
type dbTime struct {
	t time.Time
}

func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.t = time.Time{}
		return nil
	case time.Time:
		d.t = v
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (d *dbTime) parse(s string) error {
	if s == "" {
		d.t = time.Time{}
		return nil
	}
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			d.t = t
			return nil
		}
	}
	return fmt.Errorf("unparseable time: %q", s)
}

func (d *dbTime) Time() time.Time { return d.t }

// dbTimePtr is dbTime for nullable columns.
type dbTimePtr struct {
	t *time.Time
}

func (d *dbTimePtr) Scan(src any) error {
	if src == nil {
		d.t = nil
		return nil
	}
	var inner dbTime
	if err := inner.Scan(src); err != nil {
		return err
	}
	t := inner.Time()
	d.t = &t
	return nil
}

func (d *dbTimePtr) Ptr() *time.Time { return d.t }
