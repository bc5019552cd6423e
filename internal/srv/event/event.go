package event

import (
	"github.com/jypelle/heatbox/apimodel"
)

// Api
type ApiEvent struct {
	Result chan ApiResult
	Data   interface{}
}

type ApiResult struct {
	Status *apimodel.Status
	Err    error
}

type ApiEventStatusData struct{}

type ApiEventKnobRotateData struct {
	Detents int64
}

type ApiEventKnobPressData struct{}
