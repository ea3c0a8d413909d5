package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// ImportResult reports a bulk card import.
type ImportResult struct {
	BatchID  int64 `json:"batch_id,string"`
	Imported int   `json:"imported"`
	Skipped  int   `json:"skipped"`
}

// CardService handles admin stock management.
type CardService interface {
	List(ctx context.Context, filter repository.CardFilter, page repository.Page) ([]model.Card, int64, error)
	Import(ctx context.Context, productID uuid.UUID, lines []string) (*ImportResult, error)
	// Delete removes UNSOLD cards. Either every id is deleted or none is.
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type cardService struct {
	store    repository.Store
	restocks RestockService
	node     *snowflake.Node
	logger   *zap.Logger
}

// NewCardService creates a new card service.
func NewCardService(store repository.Store, restocks RestockService, node *snowflake.Node, logger *zap.Logger) CardService {
	return &cardService{store: store, restocks: restocks, node: node, logger: logger}
}

func (s *cardService) List(ctx context.Context, filter repository.CardFilter, page repository.Page) ([]model.Card, int64, error) {
	cards, total, err := s.store.Cards().List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	return cards, total, nil
}

func (s *cardService) Import(ctx context.Context, productID uuid.UUID, lines []string) (*ImportResult, error) {
	if _, err := s.store.Products().FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	seen := make(map[string]struct{}, len(lines))
	contents := make([]string, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			skipped++
			continue
		}
		seen[line] = struct{}{}
		contents = append(contents, line)
	}
	if len(contents) == 0 {
		return nil, apperrors.Validation("No card content to import", map[string]string{"cards": "required"})
	}

	existing, err := s.store.Cards().ExistingContents(ctx, productID, contents)
	if err != nil {
		return nil, fmt.Errorf("check existing cards: %w", err)
	}
	stored := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		stored[c] = struct{}{}
	}

	batchID := s.node.Generate().Int64()
	cards := make([]model.Card, 0, len(contents))
	for _, c := range contents {
		if _, ok := stored[c]; ok {
			skipped++
			continue
		}
		cards = append(cards, model.Card{
			ProductID: productID,
			Content:   c,
			Status:    model.CardStatusUnsold,
			BatchID:   batchID,
		})
	}

	result := &ImportResult{BatchID: batchID, Imported: len(cards), Skipped: skipped}
	if len(cards) == 0 {
		return result, nil
	}
	if err := s.store.Cards().CreateBatch(ctx, cards); err != nil {
		return nil, fmt.Errorf("import cards: %w", err)
	}
	s.logger.Info("cards imported",
		zap.String("product_id", productID.String()),
		zap.Int64("batch_id", batchID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)

	if s.restocks != nil {
		if _, err := s.restocks.Check(ctx, productID); err != nil {
			s.logger.Warn("restock check failed", zap.String("product_id", productID.String()), zap.Error(err))
		}
	}
	return result, nil
}

func (s *cardService) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, apperrors.Validation("No cards selected", map[string]string{"ids": "required"})
	}

	var deleted int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		cards, err := tx.Cards().FindByIDsForUpdate(ctx, unique)
		if err != nil {
			return fmt.Errorf("lock cards: %w", err)
		}
		if len(cards) != len(unique) {
			return apperrors.NotFound(fmt.Sprintf("%d of %d cards not found", len(unique)-len(cards), len(unique)))
		}
		for _, card := range cards {
			if card.Status != model.CardStatusUnsold {
				return apperrors.Conflict(fmt.Sprintf("Card %s is %s and cannot be deleted", card.ID, card.Status))
			}
		}

		deleted, err = tx.Cards().DeleteUnsold(ctx, unique)
		if err != nil {
			return fmt.Errorf("delete cards: %w", err)
		}
		if deleted != int64(len(unique)) {
			return apperrors.Conflict("Cards changed while deleting, nothing was deleted")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
