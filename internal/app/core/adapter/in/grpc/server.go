package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-mem-transfer/api/ledgerv1"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/pkg/workerpool"
)

type GrpcServer struct {
	ledgerv1.UnimplementedAccountServiceServer
	core *usecase.CoreUseCase
}

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

func (s *GrpcServer) CreateAccount(ctx context.Context, req *ledgerv1.CreateAccountRequest) (*ledgerv1.CreateAccountResponse, error) {
	if err := s.core.CreateAccount(ctx, req.AccountId, req.Balance); err != nil {
		return nil, toStatus(err)
	}
	return &ledgerv1.CreateAccountResponse{}, nil
}

func (s *GrpcServer) GetAccount(ctx context.Context, req *ledgerv1.GetAccountRequest) (*ledgerv1.Account, error) {
	account, err := s.core.GetAccount(ctx, req.AccountId)
	if err != nil {
		return nil, toStatus(err)
	}
	return toProtoAccount(account), nil
}

// Transfer 同步等待轉帳完成
// 呼叫端中途取消只會放棄等待，已開始的轉帳仍會完成
func (s *GrpcServer) Transfer(ctx context.Context, req *ledgerv1.TransferRequest) (*ledgerv1.TransferResponse, error) {
	transfer := domain.NewTransferRequest(req.FromAccountId, req.ToAccountId, req.Amount)
	result, err := s.core.TransferSync(ctx, transfer)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ledgerv1.TransferResponse{
		TransferId:  transfer.ID.String(),
		FromAccount: toProtoAccount(result.From),
		ToAccount:   toProtoAccount(result.To),
	}, nil
}

func toProtoAccount(a domain.Account) *ledgerv1.Account {
	return &ledgerv1.Account{AccountId: a.ID, Balance: a.Balance}
}

// toStatus 把業務錯誤轉成 gRPC status code
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrDuplicateAccount):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrAccountNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrInvalidAccount), errors.Is(err, domain.ErrNegativeAmount):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrInsufficientFunds):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrSchedulerSaturated):
		code = codes.ResourceExhausted
	case errors.Is(err, workerpool.ErrClosed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
