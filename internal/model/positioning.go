package model

import "time"

// PositioningReport is one row of a commitments-of-traders style dataset.
type PositioningReport struct {
	Market     string    `json:"market"`
	ReportDate time.Time `json:"report_date"`
	Long       float64   `json:"long"`
	Short      float64   `json:"short"`
}

// Net returns long minus short contracts.
func (r PositioningReport) Net() float64 { return r.Long - r.Short }
