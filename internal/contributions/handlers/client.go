package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Client calls contributions.v1.ContributionService over a gRPC connection
// using the JSON codec. When a token is set it is sent as a Bearer
// authorization header on every call.
type Client struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewClient(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{cc: cc, token: token}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateWorker(ctx context.Context, in *CreateWorkerRequest, opts ...grpc.CallOption) (*WorkerResponse, error) {
	return invoke[WorkerResponse](ctx, c, "CreateWorker", in, opts)
}

func (c *Client) UpdateWorker(ctx context.Context, in *UpdateWorkerRequest, opts ...grpc.CallOption) (*WorkerResponse, error) {
	return invoke[WorkerResponse](ctx, c, "UpdateWorker", in, opts)
}

func (c *Client) GetWorkerYear(ctx context.Context, in *WorkerKeyRequest, opts ...grpc.CallOption) (*WorkerResponse, error) {
	return invoke[WorkerResponse](ctx, c, "GetWorkerYear", in, opts)
}

func (c *Client) ListWorkers(ctx context.Context, in *ListWorkersRequest, opts ...grpc.CallOption) (*ListWorkersResponse, error) {
	return invoke[ListWorkersResponse](ctx, c, "ListWorkers", in, opts)
}

func (c *Client) DeleteWorker(ctx context.Context, in *DeleteWorkerRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteWorker", in, opts)
}

func (c *Client) AddContingenciaComun(ctx context.Context, in *AddContingenciaComunRequest, opts ...grpc.CallOption) (*ContingenciaComunResponse, error) {
	return invoke[ContingenciaComunResponse](ctx, c, "AddContingenciaComun", in, opts)
}

func (c *Client) ListContingencias(ctx context.Context, in *WorkerKeyRequest, opts ...grpc.CallOption) (*ListContingenciasResponse, error) {
	return invoke[ListContingenciasResponse](ctx, c, "ListContingencias", in, opts)
}

func (c *Client) UpsertConvenio(ctx context.Context, in *UpsertConvenioRequest, opts ...grpc.CallOption) (*ConvenioResponse, error) {
	return invoke[ConvenioResponse](ctx, c, "UpsertConvenio", in, opts)
}

func (c *Client) GetConvenio(ctx context.Context, in *ConvenioRequest, opts ...grpc.CallOption) (*ConvenioResponse, error) {
	return invoke[ConvenioResponse](ctx, c, "GetConvenio", in, opts)
}

func (c *Client) ListConvenios(ctx context.Context, opts ...grpc.CallOption) (*ListConveniosResponse, error) {
	return invoke[ListConveniosResponse](ctx, c, "ListConvenios", &Empty{}, opts)
}

func (c *Client) DeleteConvenio(ctx context.Context, in *ConvenioRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteConvenio", in, opts)
}

func (c *Client) UpsertCargaSocial(ctx context.Context, in *UpsertCargaSocialRequest, opts ...grpc.CallOption) (*CargaSocialResponse, error) {
	return invoke[CargaSocialResponse](ctx, c, "UpsertCargaSocial", in, opts)
}

func (c *Client) GetCargaSocial(ctx context.Context, in *CargaSocialRequest, opts ...grpc.CallOption) (*CargaSocialResponse, error) {
	return invoke[CargaSocialResponse](ctx, c, "GetCargaSocial", in, opts)
}

func (c *Client) ListCargasSociales(ctx context.Context, opts ...grpc.CallOption) (*ListCargasSocialesResponse, error) {
	return invoke[ListCargasSocialesResponse](ctx, c, "ListCargasSociales", &Empty{}, opts)
}

func (c *Client) DeleteCargaSocial(ctx context.Context, in *CargaSocialRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteCargaSocial", in, opts)
}
