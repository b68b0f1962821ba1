package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

type ContentUC struct {
	Reviews  domain.ReviewRepo
	FAQs     domain.FAQRepo
	Products domain.ProductRepo
	Events   domain.Publisher
}

func (uc *ContentUC) SubmitReview(ctx context.Context, caller *domain.UserProfile, productID uuid.UUID, rating int, comment string) (*domain.Review, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, invalid("a review needs a comment")
	}
	if _, err := uc.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	name := caller.Username
	if name == "" {
		name = caller.FullName
	}
	r := &domain.Review{
		ProductID: productID,
		UserID:    caller.ID,
		UserName:  name,
		Rating:    rating,
		Comment:   comment,
		Status:    domain.ReviewPending,
	}
	if err := uc.Reviews.Save(ctx, r); err != nil {
		return nil, err
	}
	publish(uc.Events, domain.CollectionReviews, r.ID.String(), "create", caller.ID, r)
	return r, nil
}

func (uc *ContentUC) ProductReviews(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	return uc.Reviews.ListByProduct(ctx, productID, true)
}

func (uc *ContentUC) PendingReviews(ctx context.Context, caller *domain.UserProfile) ([]domain.Review, error) {
	if err := authorize(caller, domain.ActionManageReviews); err != nil {
		return nil, err
	}
	return uc.Reviews.ListByStatus(ctx, domain.ReviewPending)
}

func (uc *ContentUC) ApproveReview(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) (*domain.Review, error) {
	if err := authorize(caller, domain.ActionManageReviews); err != nil {
		return nil, err
	}
	r, err := uc.Reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Status = domain.ReviewApproved
	if err := uc.Reviews.Save(ctx, r); err != nil {
		return nil, err
	}
	publish(uc.Events, domain.CollectionReviews, r.ID.String(), "approve", r.UserID, r)
	return r, nil
}

func (uc *ContentUC) DeleteReview(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) error {
	if err := authorize(caller, domain.ActionManageReviews); err != nil {
		return err
	}
	if err := uc.Reviews.Delete(ctx, id); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionReviews, id.String(), "delete", "", nil)
	return nil
}

func (uc *ContentUC) FAQList(ctx context.Context) ([]domain.FAQ, error) {
	return uc.FAQs.List(ctx)
}

func (uc *ContentUC) SaveFAQ(ctx context.Context, caller *domain.UserProfile, f *domain.FAQ) error {
	if err := authorize(caller, domain.ActionManageFAQs); err != nil {
		return err
	}
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	if f.Question == "" || f.Answer == "" {
		return invalid("question and answer are required")
	}
	if err := uc.FAQs.Save(ctx, f); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionFAQs, f.ID.String(), "upsert", "", f)
	return nil
}

func (uc *ContentUC) DeleteFAQ(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) error {
	if err := authorize(caller, domain.ActionManageFAQs); err != nil {
		return err
	}
	if err := uc.FAQs.Delete(ctx, id); err != nil {
		return err
	}
	publish(uc.Events, domain.CollectionFAQs, id.String(), "delete", "", nil)
	return nil
}
