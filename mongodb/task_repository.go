package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
)

type taskDocument struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	UserID          string              `bson:"user_id"`
	Title           string              `bson:"title"`
	Description     string              `bson:"description,omitempty"`
	DueDate         *time.Time          `bson:"due_date,omitempty"`
	Priority        models.TaskPriority `bson:"priority"`
	Source          models.TaskSource   `bson:"source"`
	CalendarEventID string              `bson:"calendar_event_id,omitempty"`
	Status          models.TaskStatus   `bson:"status"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

func (d *taskDocument) toModel() *models.Task {
	return &models.Task{
		ID:              d.ID.Hex(),
		UserID:          d.UserID,
		Title:           d.Title,
		Description:     d.Description,
		DueDate:         d.DueDate,
		Priority:        d.Priority,
		Source:          d.Source,
		CalendarEventID: d.CalendarEventID,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type TaskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(database *mongo.Database) *TaskRepository {
	return &TaskRepository{coll: database.Collection("tasks")}
}

func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	doc := taskDocument{
		UserID:          task.UserID,
		Title:           task.Title,
		Description:     task.Description,
		DueDate:         task.DueDate,
		Priority:        task.Priority,
		Source:          task.Source,
		CalendarEventID: task.CalendarEventID,
		Status:          task.Status,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
	result, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		task.ID = oid.Hex()
	}
	return nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.toModel())
	}
	return tasks, cursor.Err()
}

func (r *TaskRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error) {
	filter, err := taskFilter(id, userID)
	if err != nil {
		return nil, err
	}
	return r.getOne(ctx, filter)
}

func (r *TaskRepository) GetByCalendarEvent(ctx context.Context, userID, eventID string) (*models.Task, error) {
	return r.getOne(ctx, bson.M{"user_id": userID, "calendar_event_id": eventID})
}

func (r *TaskRepository) UpdateByIDAndUser(ctx context.Context, id, userID string, patch *models.TaskPatch) (*models.Task, error) {
	filter, err := taskFilter(id, userID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.DueDate != nil {
		set["due_date"] = *patch.DueDate
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *TaskRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error) {
	filter, err := taskFilter(id, userID)
	if err != nil {
		return nil, err
	}
	var doc taskDocument
	err = r.coll.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *TaskRepository) getOne(ctx context.Context, filter bson.M) (*models.Task, error) {
	var doc taskDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func taskFilter(id, userID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, db.ErrNotFound
	}
	return bson.M{"_id": oid, "user_id": userID}, nil
}
