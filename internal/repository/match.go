package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agladiator/internal/bootstrap"
	"agladiator/internal/domain/game"
	apperr "agladiator/internal/errors"
)

const outcomesCollection = "outcomes"

type MatchRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewMatchRepository(cfg bootstrap.Config, log *zap.SugaredLogger, mongo *mongo.Database) *MatchRepository {
	return &MatchRepository{
		cfg:   cfg,
		log:   log,
		mongo: mongo,
	}
}

// SaveOutcome stores the outcome, replacing an earlier one for the same match.
func (m *MatchRepository) SaveOutcome(ctx context.Context, outcome game.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := m.mongo.Collection(outcomesCollection)

	filter := bson.M{"match_id": outcome.MatchID}
	_, err := collection.ReplaceOne(ctx, filter, outcome, options.Replace().SetUpsert(true))
	if err != nil {
		m.log.Errorw("saving outcome", "match_id", outcome.MatchID, "error", err)
		return err
	}
	return nil
}

func (m *MatchRepository) GetOutcome(ctx context.Context, matchID string) (game.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := m.mongo.Collection(outcomesCollection)

	outcome := game.Outcome{}
	err := collection.FindOne(ctx, bson.M{"match_id": matchID}).Decode(&outcome)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return outcome, apperr.ErrOutcomeNotFound
	} else if err != nil {
		m.log.Error(err)
		return outcome, err
	}
	return outcome, nil
}

// RecentOutcomes returns up to limit outcomes, newest first.
func (m *MatchRepository) RecentOutcomes(ctx context.Context, limit int64) ([]game.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	collection := m.mongo.Collection(outcomesCollection)

	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: -1}}).SetLimit(limit)
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		m.log.Error(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var outcomes []game.Outcome
	if err := cursor.All(ctx, &outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}
