// Package grpc exposes contract lookups to sibling services over the mesh.
package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pactline/contract-exchange/internal/application"
	"github.com/pactline/contract-exchange/internal/domain"
)

type ContractInternalService interface {
	GetContract(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ContractInternalServer answers internal contract lookups. It sits behind
// the mesh boundary, so there is no participant check here.
type ContractInternalServer struct {
	service *application.Service
}

func NewContractInternalServer(service *application.Service) *ContractInternalServer {
	return &ContractInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc ContractInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "pactline.contracts.v1.ContractInternalService",
		HandlerType: (*ContractInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetContract",
				Handler:    getContractHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "pactline/contracts/proto/v1/contract_internal.proto",
	}, svc)
}

func (s *ContractInternalServer) GetContract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rawID := req.GetFields()["contract_id"].GetStringValue()
	if rawID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing contract_id")
	}
	contractID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "contract_id must be a uuid")
	}

	c, err := s.service.Describe(ctx, contractID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "contract not found")
		}
		return nil, status.Error(codes.Internal, "contract lookup failed")
	}

	fields := map[string]any{
		"contract_id":     c.ContractID.String(),
		"title":           c.Title,
		"status":          string(c.Status),
		"sender_id":       c.SenderID.String(),
		"recipient_id":    c.RecipientID.String(),
		"current_version": c.CurrentVersion,
		"locked":          c.Locked(),
		"created_at":      c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if c.LockedByID != nil {
		fields["locked_by"] = c.LockedByID.String()
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return resp, nil
}

func getContractHandler(svc ContractInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, ctx context.Context, decode func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := decode(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetContract(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     svc,
			FullMethod: "/pactline.contracts.v1.ContractInternalService/GetContract",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return svc.GetContract(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
