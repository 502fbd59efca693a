package review

import (
	"fmt"

	"github.com/fayaz1010/Iqra/plugin/srs"
	"github.com/fayaz1010/Iqra/store"
)

func convertReviewItemToStore(userID string, item srs.ReviewItem) *store.ReviewItem {
	return &store.ReviewItem{
		UserID:             userID,
		UID:                item.ID,
		Type:               item.Type.String(),
		Content:            item.Content,
		Level:              item.Level,
		LastReviewedMs:     item.LastReviewed,
		NextReviewMs:       item.NextReview,
		IntervalMs:         item.Interval,
		EaseFactor:         item.EaseFactor,
		ConsecutiveCorrect: item.ConsecutiveCorrect,
	}
}

func convertReviewItemFromStore(row *store.ReviewItem) (srs.ReviewItem, error) {
	itemType, err := srs.ParseItemType(row.Type)
	if err != nil {
		return srs.ReviewItem{}, fmt.Errorf("review item %s: %w", row.UID, err)
	}
	return srs.ReviewItem{
		ID:                 row.UID,
		Type:               itemType,
		Content:            row.Content,
		Level:              row.Level,
		LastReviewed:       row.LastReviewedMs,
		NextReview:         row.NextReviewMs,
		Interval:           row.IntervalMs,
		EaseFactor:         row.EaseFactor,
		ConsecutiveCorrect: row.ConsecutiveCorrect,
	}, nil
}

func convertReviewItemsFromStore(rows []*store.ReviewItem) ([]srs.ReviewItem, error) {
	items := make([]srs.ReviewItem, 0, len(rows))
	for _, row := range rows {
		item, err := convertReviewItemFromStore(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
