package mocks

//go:generate mockgen -destination=./mock_candle_source.go -package=mocks github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider CandleSource
//go:generate mockgen -destination=./mock_sink.go -package=mocks github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer Sink
