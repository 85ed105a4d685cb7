package model

import (
	"time"

	"github.com/gorhill/cronexpr"
)

// Schedule yields the next run time after start, exclusive.
type Schedule interface {
	Next(start time.Time) time.Time
}

type CronSchedule struct {
	expr *cronexpr.Expression
}

func NewCronSchedule(cron string) (*CronSchedule, error) {
	expr, err := cronexpr.Parse(cron)
	if err != nil {
		return nil, err
	}
	return &CronSchedule{expr: expr}, nil
}

func (c *CronSchedule) Next(start time.Time) time.Time {
	return c.expr.Next(start)
}
