package service

import (
	"context"
	"fmt"

	"github.com/eduline/liveclass/internal/model"
	"go.uber.org/zap"
)

// AccessService решает, покрывает ли хоть одна покупка ребёнка данное
// занятие. Гранты пишутся биллингом, здесь они только читаются.
type AccessService struct {
	grantRepo AccessGrantRepository
	logger    *zap.Logger
}

func NewAccessService(grantRepo AccessGrantRepository, logger *zap.Logger) *AccessService {
	return &AccessService{
		grantRepo: grantRepo,
		logger:    logger,
	}
}

// HasAccess проверяет, что у ребёнка есть оплаченный грант, покрывающий
// занятие. Несколько грантов могут покрывать одно занятие — достаточно
// любого; идемпотентность входа обеспечивает реестр участников, не мы.
func (s *AccessService) HasAccess(ctx context.Context, childID, sessionID int64) (bool, error) {
	grants, err := s.grantRepo.GetUsableByChild(ctx, childID)
	if err != nil {
		return false, fmt.Errorf("get grants: %w", err)
	}

	for _, grant := range grants {
		if grant.CoversSession(sessionID) {
			return true, nil
		}
	}

	return false, nil
}

// ResolvePurchaseSource возвращает первую покупку, давшую ребёнку доступ к
// занятию: курс или отдельная услуга. Только для отображения, на
// авторизацию не влияет. nil — доступа нет.
func (s *AccessService) ResolvePurchaseSource(ctx context.Context, childID, sessionID int64) (*model.PurchaseSource, error) {
	grants, err := s.grantRepo.GetUsableByChild(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("get grants: %w", err)
	}

	for _, grant := range grants {
		if grant.CoversSession(sessionID) {
			return &model.PurchaseSource{
				Kind: grant.Kind,
				ID:   grant.SourceID,
				Name: grant.SourceName,
			}, nil
		}
	}

	return nil, nil
}
