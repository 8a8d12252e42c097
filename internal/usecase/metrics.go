package usecase

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string, string) {}

func (nopMetrics) RecordFunnelEvent(string, string) {}

func (nopMetrics) RecordError(string) {}

func (nopMetrics) RecordLastPrice(string, float64) {}

func (nopMetrics) RecordLatency(string, float64) {}
