package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/database"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const defaultAuditsTableName = "audits"

type auditItem struct {
	ID                string             `dynamodbav:"id"`
	AuditorID         string             `dynamodbav:"auditor_id"`
	DateExecution     string             `dynamodbav:"date_execution"`
	Address           string             `dynamodbav:"address"`
	Categories        []categoryRecord   `dynamodbav:"categories"`
	CorrectiveActions []correctiveRecord `dynamodbav:"corrective_actions"`
	Status            string             `dynamodbav:"status"`
	CompletedAt       string             `dynamodbav:"completed_at,omitempty"`
	CreatedAt         string             `dynamodbav:"created_at"`
	UpdatedAt         string             `dynamodbav:"updated_at"`
}

type categoryRecord struct {
	ID    string       `dynamodbav:"id"`
	Name  string       `dynamodbav:"name"`
	Items []itemRecord `dynamodbav:"items"`
}

type itemRecord struct {
	ID                         string              `dynamodbav:"id"`
	Name                       string              `dynamodbav:"name"`
	Ponderation                string              `dynamodbav:"ponderation"`
	Classification             string              `dynamodbav:"classification"`
	NonConformities            *int                `dynamodbav:"non_conformities"`
	KO                         int                 `dynamodbav:"ko"`
	IsAudited                  bool                `dynamodbav:"is_audited"`
	Observations               []observationRecord `dynamodbav:"observations"`
	ObservationOptions         []optionRecord      `dynamodbav:"observation_options,omitempty"`
	AvailableObservations      []string            `dynamodbav:"available_observations,omitempty"`
	AvailableCorrectiveActions []string            `dynamodbav:"available_corrective_actions,omitempty"`
	Photos                     []string            `dynamodbav:"photos"`
	Comments                   string              `dynamodbav:"comments"`
}

type observationRecord struct {
	ID               string `dynamodbav:"id"`
	Text             string `dynamodbav:"text"`
	CorrectiveAction string `dynamodbav:"corrective_action,omitempty"`
}

type optionRecord struct {
	Observation string `dynamodbav:"observation"`
	Action      string `dynamodbav:"action"`
}

type correctiveRecord struct {
	ID               string `dynamodbav:"id"`
	Ecart            string `dynamodbav:"ecart"`
	ActionCorrective string `dynamodbav:"action_corrective"`
	Delai            string `dynamodbav:"delai"`
	Quand            string `dynamodbav:"quand"`
	Visa             string `dynamodbav:"visa"`
	Verification     string `dynamodbav:"verification"`
}

// AuditDynamoRepository persists Audit entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: auditor_id-index (PK: auditor_id)
//
// Categories are stored inline, photos included, so a single audit must stay
// under the 400 KB item limit.
type AuditDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
	now       func() time.Time
}

var _ interfaces.IAuditRepository = (*AuditDynamoRepository)(nil)

func NewAuditDynamoRepository(ddb *dynamodb.Client, tableName string) *AuditDynamoRepository {
	return newAuditRepository(ddb, tableName)
}

func newAuditRepository(ddb dynamoAPI, tableName string) *AuditDynamoRepository {
	return &AuditDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, defaultAuditsTableName),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *AuditDynamoRepository) Create(ctx context.Context, a entities.Audit) (entities.Audit, error) {
	av, err := attributevalue.MarshalMap(toAuditItem(a))
	if err != nil {
		return entities.Audit{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Audit{}, err
	}
	return a, nil
}

func (r *AuditDynamoRepository) GetByID(ctx context.Context, id string) (entities.Audit, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Audit{}, err
	}
	if len(out.Item) == 0 {
		return entities.Audit{}, nil
	}

	var it auditItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Audit{}, err
	}
	return fromAuditItem(it), nil
}

func (r *AuditDynamoRepository) ListAll(ctx context.Context) ([]entities.Audit, error) {
	p := dynamodb.NewScanPaginator(r.ddb, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})

	audits := make([]entities.Audit, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		batch, err := unmarshalAudits(page.Items)
		if err != nil {
			return nil, err
		}
		audits = append(audits, batch...)
	}
	return audits, nil
}

func (r *AuditDynamoRepository) ListByAuditorID(ctx context.Context, auditorID string) ([]entities.Audit, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(database.AuditsAuditorIDIndex),
		KeyConditionExpression: aws.String("auditor_id = :aid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: auditorID},
		},
	})

	audits := make([]entities.Audit, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		batch, err := unmarshalAudits(page.Items)
		if err != nil {
			return nil, err
		}
		audits = append(audits, batch...)
	}
	return audits, nil
}

// Update applies the non-nil fields of patch. A missing audit yields a zero
// Audit and no error.
func (r *AuditDynamoRepository) Update(ctx context.Context, id string, patch entities.AuditPatch) (entities.Audit, error) {
	var buildErr error
	updated, err := r.update(ctx, id, func(now string) (string, map[string]types.AttributeValue, map[string]string) {
		expr, vals, names, err := buildAuditUpdate(patch, now)
		buildErr = err
		return expr, vals, names
	})
	if buildErr != nil {
		return entities.Audit{}, buildErr
	}
	return updated, err
}

// Delete reports whether an audit was actually removed.
func (r *AuditDynamoRepository) Delete(ctx context.Context, id string) (bool, error) {
	out, err := r.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, err
	}
	return len(out.Attributes) > 0, nil
}

func (r *AuditDynamoRepository) update(
	ctx context.Context,
	id string,
	build func(now string) (updateExpr string, values map[string]types.AttributeValue, names map[string]string),
) (entities.Audit, error) {
	now := r.now().Format(time.RFC3339Nano)
	updateExpr, values, names := build(now)
	if updateExpr == "" {
		return entities.Audit{}, nil
	}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames:  mergeNames(names, map[string]string{"#id": "id"}),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.Audit{}, nil
		}
		return entities.Audit{}, err
	}
	if len(out.Attributes) == 0 {
		return entities.Audit{}, nil
	}
	var it auditItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return entities.Audit{}, err
	}
	return fromAuditItem(it), nil
}

// buildAuditUpdate turns a patch into a SET expression. updated_at is always
// refreshed.
func buildAuditUpdate(patch entities.AuditPatch, now string) (string, map[string]types.AttributeValue, map[string]string, error) {
	sets := []string{"#updated_at = :updated_at"}
	vals := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: now},
	}
	names := map[string]string{"#updated_at": "updated_at"}

	set := func(field string, v types.AttributeValue) {
		sets = append(sets, "#"+field+" = :"+field)
		vals[":"+field] = v
		names["#"+field] = field
	}

	if patch.DateExecution != nil {
		set("date_execution", &types.AttributeValueMemberS{Value: *patch.DateExecution})
	}
	if patch.Address != nil {
		set("address", &types.AttributeValueMemberS{Value: *patch.Address})
	}
	if patch.Categories != nil {
		av, err := attributevalue.Marshal(toCategoryRecords(*patch.Categories))
		if err != nil {
			return "", nil, nil, err
		}
		set("categories", av)
	}
	if patch.CorrectiveActions != nil {
		av, err := attributevalue.Marshal(toCorrectiveRecords(*patch.CorrectiveActions))
		if err != nil {
			return "", nil, nil, err
		}
		set("corrective_actions", av)
	}
	if patch.Status != nil {
		set("status", &types.AttributeValueMemberS{Value: string(*patch.Status)})
	}
	if patch.CompletedAt != nil {
		set("completed_at", &types.AttributeValueMemberS{Value: formatTime(*patch.CompletedAt)})
	}

	return "SET " + strings.Join(sets, ", "), vals, names, nil
}

func unmarshalAudits(raw []map[string]types.AttributeValue) ([]entities.Audit, error) {
	out := make([]entities.Audit, 0, len(raw))
	for _, item := range raw {
		var it auditItem
		if err := attributevalue.UnmarshalMap(item, &it); err != nil {
			return nil, err
		}
		out = append(out, fromAuditItem(it))
	}
	return out, nil
}

func toAuditItem(a entities.Audit) auditItem {
	it := auditItem{
		ID:                a.ID,
		AuditorID:         a.AuditorID,
		DateExecution:     a.DateExecution,
		Address:           a.Address,
		Categories:        toCategoryRecords(a.Categories),
		CorrectiveActions: toCorrectiveRecords(a.CorrectiveActions),
		Status:            string(a.Status),
		CreatedAt:         formatTime(a.CreatedAt),
		UpdatedAt:         formatTime(a.UpdatedAt),
	}
	if a.CompletedAt != nil {
		it.CompletedAt = formatTime(*a.CompletedAt)
	}
	return it
}

func fromAuditItem(it auditItem) entities.Audit {
	a := entities.Audit{
		ID:                it.ID,
		AuditorID:         it.AuditorID,
		DateExecution:     it.DateExecution,
		Address:           it.Address,
		Categories:        fromCategoryRecords(it.Categories),
		CorrectiveActions: fromCorrectiveRecords(it.CorrectiveActions),
		Status:            entities.AuditStatus(it.Status),
		CreatedAt:         parseTime(it.CreatedAt),
		UpdatedAt:         parseTime(it.UpdatedAt),
		Synced:            true,
	}
	if it.CompletedAt != "" {
		t := parseTime(it.CompletedAt)
		a.CompletedAt = &t
	}
	return a
}

func toCategoryRecords(cats []entities.AuditCategory) []categoryRecord {
	out := make([]categoryRecord, 0, len(cats))
	for _, c := range cats {
		items := make([]itemRecord, 0, len(c.Items))
		for _, i := range c.Items {
			obs := make([]observationRecord, 0, len(i.Observations))
			for _, o := range i.Observations {
				obs = append(obs, observationRecord(o))
			}
			var opts []optionRecord
			for _, o := range i.ObservationOptions {
				opts = append(opts, optionRecord(o))
			}
			items = append(items, itemRecord{
				ID:                         i.ID,
				Name:                       i.Name,
				Ponderation:                floatToString(i.Ponderation),
				Classification:             string(i.Classification),
				NonConformities:            i.NonConformities,
				KO:                         i.KO,
				IsAudited:                  i.IsAudited,
				Observations:               obs,
				ObservationOptions:         opts,
				AvailableObservations:      i.AvailableObservations,
				AvailableCorrectiveActions: i.AvailableCorrectiveActions,
				Photos:                     nonNilStrings(i.Photos),
				Comments:                   i.Comments,
			})
		}
		out = append(out, categoryRecord{ID: c.ID, Name: c.Name, Items: items})
	}
	return out
}

func fromCategoryRecords(recs []categoryRecord) []entities.AuditCategory {
	out := make([]entities.AuditCategory, 0, len(recs))
	for _, c := range recs {
		items := make([]entities.AuditItem, 0, len(c.Items))
		for _, i := range c.Items {
			obs := make([]entities.Observation, 0, len(i.Observations))
			for _, o := range i.Observations {
				obs = append(obs, entities.Observation(o))
			}
			var opts []entities.ObservationOption
			for _, o := range i.ObservationOptions {
				opts = append(opts, entities.ObservationOption(o))
			}
			items = append(items, entities.AuditItem{
				ID:                         i.ID,
				Name:                       i.Name,
				Ponderation:                stringToFloat(i.Ponderation),
				Classification:             entities.Classification(i.Classification),
				NonConformities:            i.NonConformities,
				KO:                         i.KO,
				IsAudited:                  i.IsAudited,
				Observations:               obs,
				ObservationOptions:         opts,
				AvailableObservations:      i.AvailableObservations,
				AvailableCorrectiveActions: i.AvailableCorrectiveActions,
				Photos:                     nonNilStrings(i.Photos),
				Comments:                   i.Comments,
			})
		}
		out = append(out, entities.AuditCategory{ID: c.ID, Name: c.Name, Items: items})
	}
	return out
}

func toCorrectiveRecords(rows []entities.CorrectiveActionRow) []correctiveRecord {
	out := make([]correctiveRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, correctiveRecord(r))
	}
	return out
}

func fromCorrectiveRecords(recs []correctiveRecord) []entities.CorrectiveActionRow {
	out := make([]entities.CorrectiveActionRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, entities.CorrectiveActionRow(r))
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
