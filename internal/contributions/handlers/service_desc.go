package handlers

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	ServiceName = "contributions.v1.ContributionService"

	// CodecName is the content-subtype clients select with
	// grpc.CallContentSubtype to talk to the service.
	CodecName = "json"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return CodecName }

// ContributionServer is the server API of contributions.v1.ContributionService.
type ContributionServer interface {
	CreateWorker(context.Context, *CreateWorkerRequest) (*WorkerResponse, error)
	UpdateWorker(context.Context, *UpdateWorkerRequest) (*WorkerResponse, error)
	GetWorkerYear(context.Context, *WorkerKeyRequest) (*WorkerResponse, error)
	ListWorkers(context.Context, *ListWorkersRequest) (*ListWorkersResponse, error)
	DeleteWorker(context.Context, *DeleteWorkerRequest) (*Empty, error)
	AddContingenciaComun(context.Context, *AddContingenciaComunRequest) (*ContingenciaComunResponse, error)
	ListContingencias(context.Context, *WorkerKeyRequest) (*ListContingenciasResponse, error)
	UpsertConvenio(context.Context, *UpsertConvenioRequest) (*ConvenioResponse, error)
	GetConvenio(context.Context, *ConvenioRequest) (*ConvenioResponse, error)
	ListConvenios(context.Context, *Empty) (*ListConveniosResponse, error)
	DeleteConvenio(context.Context, *ConvenioRequest) (*Empty, error)
	UpsertCargaSocial(context.Context, *UpsertCargaSocialRequest) (*CargaSocialResponse, error)
	GetCargaSocial(context.Context, *CargaSocialRequest) (*CargaSocialResponse, error)
	ListCargasSociales(context.Context, *Empty) (*ListCargasSocialesResponse, error)
	DeleteCargaSocial(context.Context, *CargaSocialRequest) (*Empty, error)
}

// FullMethod returns the gRPC method path of name.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(ContributionServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ContributionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ContributionServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ContributionServiceDesc describes contributions.v1.ContributionService
// for grpc.Server.RegisterService.
var ContributionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContributionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateWorker", ContributionServer.CreateWorker),
		unary("UpdateWorker", ContributionServer.UpdateWorker),
		unary("GetWorkerYear", ContributionServer.GetWorkerYear),
		unary("ListWorkers", ContributionServer.ListWorkers),
		unary("DeleteWorker", ContributionServer.DeleteWorker),
		unary("AddContingenciaComun", ContributionServer.AddContingenciaComun),
		unary("ListContingencias", ContributionServer.ListContingencias),
		unary("UpsertConvenio", ContributionServer.UpsertConvenio),
		unary("GetConvenio", ContributionServer.GetConvenio),
		unary("ListConvenios", ContributionServer.ListConvenios),
		unary("DeleteConvenio", ContributionServer.DeleteConvenio),
		unary("UpsertCargaSocial", ContributionServer.UpsertCargaSocial),
		unary("GetCargaSocial", ContributionServer.GetCargaSocial),
		unary("ListCargasSociales", ContributionServer.ListCargasSociales),
		unary("DeleteCargaSocial", ContributionServer.DeleteCargaSocial),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ServiceName,
}
