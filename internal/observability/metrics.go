package observability

import (
	"expvar"
)

var (
	RequestsTotal           = expvar.NewInt("requests_total")
	RequestErrorsTotal      = expvar.NewInt("request_errors_total")
	QueryLogsIngestedTotal  = expvar.NewInt("querylogs_ingested_total")
	PredictionsTotal        = expvar.NewInt("predictions_total")
	PredictionFailuresTotal = expvar.NewInt("prediction_failures_total")
	ModelRetrainsTotal      = expvar.NewInt("model_retrains_total")
)

func IncRequests() {
	RequestsTotal.Add(1)
}

func IncRequestErrors() {
	RequestErrorsTotal.Add(1)
}

func IncIngested() {
	QueryLogsIngestedTotal.Add(1)
}

func IncPredictions() {
	PredictionsTotal.Add(1)
}

func IncPredictionFailures() {
	PredictionFailuresTotal.Add(1)
}

func IncRetrains() {
	ModelRetrainsTotal.Add(1)
}
