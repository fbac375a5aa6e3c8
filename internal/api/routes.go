package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"CrudeSentinel/internal/backtest"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/report"
)

// ReportProvider exposes the latest backtest and what-if re-simulation.
type ReportProvider interface {
	Latest() *model.BacktestReport
	Simulation() backtest.Params
	Rerun(stopLossPct, targetPct float64) (*model.BacktestReport, error)
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastRun   string    `json:"last_run,omitempty"`
}

// ReportResponse is the JSON form of a run with display rounding applied.
type ReportResponse struct {
	RunID      string             `json:"run_id"`
	Symbol     string             `json:"symbol"`
	Interval   model.Interval     `json:"interval"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Bars       int                `json:"bars"`
	Summary    report.SummaryView `json:"summary"`
	Trades     []report.TradeRow  `json:"trades"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// NewRouter builds the read-only report API.
func NewRouter(p ReportProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	SetupRoutes(router, p)
	return router
}

func SetupRoutes(router *gin.Engine, p ReportProvider) {
	router.GET("/healthz", healthCheck(p))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/report", getReport(p))
		v1.GET("/signals", getSignals(p))
		v1.GET("/trades", getTrades(p))
		v1.GET("/trades.csv", getTradesCSV(p))
	}
}

func healthCheck(p ReportProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
		if rep := p.Latest(); rep != nil {
			resp.LastRun = rep.RunID
		}
		c.JSON(http.StatusOK, resp)
	}
}

// latest aborts with 503 before the first run.
func latest(c *gin.Context, p ReportProvider) (*model.BacktestReport, bool) {
	rep := p.Latest()
	if rep == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no backtest has run yet"})
		return nil, false
	}
	return rep, true
}

// getReport returns the latest run. With stop_loss_pct and/or target_pct it
// re-simulates the same series under those exits instead.
func getReport(p ReportProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, ok := latest(c, p)
		if !ok {
			return
		}
		stopStr, hasStop := c.GetQuery("stop_loss_pct")
		targetStr, hasTarget := c.GetQuery("target_pct")
		if hasStop || hasTarget {
			sl, tp, err := exitOverrides(p.Simulation(), stopStr, hasStop, targetStr, hasTarget)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rep, err = p.Rerun(sl, tp)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, model.ErrInvalidParameter) {
					status = http.StatusBadRequest
				}
				c.JSON(status, gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, ReportResponse{
			RunID:      rep.RunID,
			Symbol:     rep.Symbol,
			Interval:   rep.Interval,
			StartedAt:  rep.StartedAt,
			FinishedAt: rep.FinishedAt,
			Bars:       rep.Series.Len(),
			Summary:    report.NewSummaryView(rep.Summary),
			Trades:     report.TradeRows(rep.Trades),
			Warnings:   rep.Warnings,
		})
	}
}

func getSignals(p ReportProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, ok := latest(c, p)
		if !ok {
			return
		}
		signals := rep.BuySignals()
		if c.Query("all") == "true" {
			signals = rep.Signals
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":  rep.RunID,
			"symbol":  rep.Symbol,
			"signals": report.SignalRows(signals),
		})
	}
}

func getTrades(p ReportProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, ok := latest(c, p)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id": rep.RunID,
			"symbol": rep.Symbol,
			"trades": report.TradeRows(rep.Trades),
		})
	}
}

func getTradesCSV(p ReportProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, ok := latest(c, p)
		if !ok {
			return
		}
		c.Header("Content-Disposition", `attachment; filename="backtest.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := report.WriteTradesCSV(c.Writer, rep.Trades); err != nil {
			_ = c.Error(err)
		}
	}
}

// exitOverrides fills the side not given in the query from the configured policy.
func exitOverrides(base backtest.Params, stopStr string, hasStop bool, targetStr string, hasTarget bool) (float64, float64, error) {
	stop, target := base.StopLossPct, base.TargetPct
	var err error
	if hasStop {
		if stop, err = strconv.ParseFloat(stopStr, 64); err != nil || math.IsNaN(stop) || math.IsInf(stop, 0) {
			return 0, 0, errors.New("stop_loss_pct must be a finite number")
		}
	}
	if hasTarget {
		if target, err = strconv.ParseFloat(targetStr, 64); err != nil || math.IsNaN(target) || math.IsInf(target, 0) {
			return 0, 0, errors.New("target_pct must be a finite number")
		}
	}
	return stop, target, nil
}
