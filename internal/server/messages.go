package server

import (
	"time"

	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/library"
	"github.com/nainya/nsilibridge/pkg/standingquery"
)

// Empty is the request or reply of methods without arguments
type Empty struct{}

// QueryRef addresses one standing query
type QueryRef struct {
	ID string `json:"id"`
}

type SubmitQueryRequest struct {
	library.Query
}

type SubmitQueryResponse struct {
	library.Result
}

type SubmitStandingQueryRequest struct {
	library.StandingRequest
}

type SubmitStandingQueryResponse struct {
	ID             string `json:"id"`
	UpdateInterval string `json:"update_interval"`
}

type GetViewsResponse struct {
	Views []string `json:"views"`
}

type ListStandingQueriesResponse struct {
	IDs []string `json:"ids"`
}

type PageSizeRequest struct {
	ID       string `json:"id"`
	PageSize int    `json:"page_size"`
}

type PageSizeResponse struct {
	PageSize int `json:"page_size"`
}

type StatusResponse struct {
	Status standingquery.Status `json:"status"`
}

type DescriptionResponse struct {
	standingquery.Description
	Type string `json:"type"`
}

type UserInfoRequest struct {
	ID       string `json:"id"`
	UserInfo string `json:"user_info"`
}

// CompleteRequest waits at most TimeoutMillis for results when the buffer is empty
type CompleteRequest struct {
	ID            string `json:"id"`
	TimeoutMillis int64  `json:"timeout_ms,omitempty"`
}

type CompleteResponse struct {
	State standingquery.CompletionState `json:"state"`
	DAGs  []dag.DAG                     `json:"dags"`
}

type HitsResponse struct {
	Hits int `json:"hits"`
}

type IntervalRequest struct {
	ID       string `json:"id"`
	Interval int    `json:"interval"`
}

type IntervalsResponse struct {
	Intervals int `json:"intervals"`
}

type ClearIntervalsRequest struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type ClearBeforeRequest struct {
	ID        string `json:"id"`
	AgeMillis int64  `json:"age_ms"`
}

type TimeResponse struct {
	Time time.Time `json:"time"`
}

type DelayResponse struct {
	DelayMillis int64 `json:"delay_ms"`
}

type RegisterCallbackRequest struct {
	ID string `json:"id"`
	// Address is the gRPC target serving nsili.Callback
	Address string `json:"address"`
}

type CallbackRef struct {
	ID         string `json:"id"`
	CallbackID string `json:"callback_id"`
}

// NotifyRequest is sent to nsili.Callback/Notify
type NotifyRequest struct {
	Status      standingquery.Status      `json:"status"`
	Description standingquery.Description `json:"description"`
}
