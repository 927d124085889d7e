// Package entries provides the PostgreSQL-backed repository for logbook
// entry persistence and sync delta queries.
package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/dbx"
	"github.com/skyready/logbook-sync/internal/server/models"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// entryColumns is the column list shared by SELECTs, in scan order.
const entryColumns = `entry_id, user_id, date, aircraft, tail_number, route, route_legs, flight_types,
	total_time, pic, sic, dual_received, dual_given, solo, cross_country, night, actual_imc, simulated_instrument,
	day_takeoffs, day_landings, night_takeoffs, night_landings, day_full_stop_landings, night_full_stop_landings,
	approaches, holds, tracking, lesson_topic, ground_instruction, maneuvers, remarks, safety_notes,
	safety_relevant, is_flight_review, status, signature, instructor_user_id, instructor_snapshot,
	student_user_id, student_snapshot, mirrored_from_entry_id, mirrored_from_user_id,
	created_at, updated_at, deleted_at`

func (r *PostgresRepository) Insert(ctx context.Context, e *models.Entry, now time.Time) error {
	query := `
		INSERT INTO logbook_entries (
			entry_id, user_id, date, aircraft, tail_number, route, route_legs, flight_types,
			total_time, pic, sic, dual_received, dual_given, solo, cross_country, night,
			actual_imc, simulated_instrument, day_takeoffs, day_landings, night_takeoffs, night_landings,
			day_full_stop_landings, night_full_stop_landings, approaches, holds, tracking,
			lesson_topic, ground_instruction, maneuvers, remarks, safety_notes, safety_relevant, is_flight_review,
			status, signature, instructor_user_id, instructor_snapshot, student_user_id, student_snapshot,
			mirrored_from_entry_id, mirrored_from_user_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44
		)`

	args, err := insertArgs(e, now)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func insertArgs(e *models.Entry, now time.Time) ([]any, error) {
	aircraft := rawOrNil(e.Aircraft)
	routeLegs := rawOrNil(e.RouteLegs)
	flightTypes, err := jsonOrNil(e.FlightTypes)
	if err != nil {
		return nil, err
	}
	maneuvers, err := jsonOrNil(e.Maneuvers)
	if err != nil {
		return nil, err
	}
	signature, err := jsonOrNil(e.Signature)
	if err != nil {
		return nil, err
	}
	instructorSnap, err := jsonOrNil(e.InstructorSnapshot)
	if err != nil {
		return nil, err
	}
	studentSnap, err := jsonOrNil(e.StudentSnapshot)
	if err != nil {
		return nil, err
	}

	return []any{
		e.EntryID, e.UserID, e.Date, aircraft, nullStr(e.TailNumber), nullStr(e.Route), routeLegs, flightTypes,
		e.TotalTime, e.PIC, e.SIC, e.DualReceived, e.DualGiven, e.Solo, e.CrossCountry, e.Night,
		e.ActualIMC, e.SimulatedInstrument, e.DayTakeoffs, e.DayLandings, e.NightTakeoffs, e.NightLandings,
		e.DayFullStopLandings, e.NightFullStopLandings, e.Approaches, e.Holds, e.Tracking,
		nullStr(e.LessonTopic), e.GroundInstruction, maneuvers, nullStr(e.Remarks), nullStr(e.SafetyNotes),
		e.SafetyRelevant, e.IsFlightReview,
		e.Status, signature, nullStr(e.InstructorUserID), instructorSnap, nullStr(e.StudentUserID), studentSnap,
		nullStr(e.MirroredFromEntryID), nullStr(e.MirroredFromUserID), now.UTC(), now.UTC(),
	}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, entryID, userID string, data *models.Entry, now time.Time) (int64, error) {
	query := `
		UPDATE logbook_entries SET
			date = $1, aircraft = $2, tail_number = $3, route = $4, route_legs = $5, flight_types = $6,
			total_time = $7, pic = $8, sic = $9, dual_received = $10, dual_given = $11, solo = $12,
			cross_country = $13, night = $14, actual_imc = $15, simulated_instrument = $16,
			day_takeoffs = $17, day_landings = $18, night_takeoffs = $19, night_landings = $20,
			day_full_stop_landings = $21, night_full_stop_landings = $22, approaches = $23,
			holds = $24, tracking = $25, lesson_topic = $26, ground_instruction = $27, maneuvers = $28,
			remarks = $29, safety_notes = $30, safety_relevant = $31, is_flight_review = $32,
			status = $33, signature = $34, instructor_user_id = $35, instructor_snapshot = $36,
			student_user_id = $37, student_snapshot = $38, updated_at = $39
		WHERE entry_id = $40 AND user_id = $41 AND deleted_at IS NULL`

	flightTypes, err := jsonOrNil(data.FlightTypes)
	if err != nil {
		return 0, err
	}
	maneuvers, err := jsonOrNil(data.Maneuvers)
	if err != nil {
		return 0, err
	}
	signature, err := jsonOrNil(data.Signature)
	if err != nil {
		return 0, err
	}
	instructorSnap, err := jsonOrNil(data.InstructorSnapshot)
	if err != nil {
		return 0, err
	}
	studentSnap, err := jsonOrNil(data.StudentSnapshot)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query,
		data.Date, rawOrNil(data.Aircraft), nullStr(data.TailNumber), nullStr(data.Route), rawOrNil(data.RouteLegs), flightTypes,
		data.TotalTime, data.PIC, data.SIC, data.DualReceived, data.DualGiven, data.Solo,
		data.CrossCountry, data.Night, data.ActualIMC, data.SimulatedInstrument,
		data.DayTakeoffs, data.DayLandings, data.NightTakeoffs, data.NightLandings,
		data.DayFullStopLandings, data.NightFullStopLandings, data.Approaches,
		data.Holds, data.Tracking, nullStr(data.LessonTopic), data.GroundInstruction, maneuvers,
		nullStr(data.Remarks), nullStr(data.SafetyNotes), data.SafetyRelevant, data.IsFlightReview,
		data.Status, signature, nullStr(data.InstructorUserID), instructorSnap,
		nullStr(data.StudentUserID), studentSnap, now.UTC(),
		entryID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpdatedAt(ctx context.Context, entryID, userID string) (time.Time, bool, error) {
	query := `SELECT updated_at FROM logbook_entries
		WHERE entry_id = $1 AND user_id = $2 AND deleted_at IS NULL`

	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, entryID, userID).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("db error: %w", err)
	}
	return updatedAt, true, nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, entryID, userID string, now time.Time) (int64, error) {
	query := `UPDATE logbook_entries SET deleted_at = $1, updated_at = $1
		WHERE entry_id = $2 AND user_id = $3 AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, now.UTC(), entryID, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SelectChanged(ctx context.Context, userID string, since time.Time, limit, offset int) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM logbook_entries
		WHERE user_id = $1
		  AND (created_at > $2 OR updated_at > $2 OR (deleted_at IS NOT NULL AND deleted_at > $2))
		ORDER BY GREATEST(created_at, updated_at, COALESCE(deleted_at, created_at))
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, userID, since.UTC(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) HasMirror(ctx context.Context, sourceEntryID, ownerID string) (bool, error) {
	query := `SELECT 1 FROM logbook_entries
		WHERE mirrored_from_entry_id = $1 AND user_id = $2 AND deleted_at IS NULL
		LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, sourceEntryID, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

func scanEntry(rows *sql.Rows) (*models.Entry, error) {
	var (
		e models.Entry

		date                                       time.Time
		aircraft, routeLegs, flightTypes           []byte
		maneuvers, signature                       []byte
		instructorSnap, studentSnap                []byte
		tailNumber, route, lessonTopic             sql.NullString
		remarks, safetyNotes                       sql.NullString
		instructorUserID, studentUserID            sql.NullString
		mirroredFromEntryID, mirroredFromUserID    sql.NullString
		totalTime, pic, sic, dualReceived          sql.NullFloat64
		dualGiven, solo, crossCountry, night       sql.NullFloat64
		actualIMC, simulatedInstrument, groundInst sql.NullFloat64
		dayTakeoffs, dayLandings                   sql.NullInt64
		nightTakeoffs, nightLandings               sql.NullInt64
		dayFullStop, nightFullStop, approaches     sql.NullInt64
		holds, tracking, safetyRelevant, review    sql.NullBool
		createdAt, updatedAt                       time.Time
		deletedAt                                  sql.NullTime
	)

	err := rows.Scan(
		&e.EntryID, &e.UserID, &date, &aircraft, &tailNumber, &route, &routeLegs, &flightTypes,
		&totalTime, &pic, &sic, &dualReceived, &dualGiven, &solo, &crossCountry, &night,
		&actualIMC, &simulatedInstrument, &dayTakeoffs, &dayLandings, &nightTakeoffs, &nightLandings,
		&dayFullStop, &nightFullStop, &approaches, &holds, &tracking, &lessonTopic, &groundInst,
		&maneuvers, &remarks, &safetyNotes, &safetyRelevant, &review, &e.Status, &signature,
		&instructorUserID, &instructorSnap, &studentUserID, &studentSnap,
		&mirroredFromEntryID, &mirroredFromUserID, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Date = date.Format("2006-01-02")
	e.Aircraft = json.RawMessage(aircraft)
	e.RouteLegs = json.RawMessage(routeLegs)
	e.TailNumber = tailNumber.String
	e.Route = route.String
	e.LessonTopic = lessonTopic.String
	e.Remarks = remarks.String
	e.SafetyNotes = safetyNotes.String
	e.InstructorUserID = instructorUserID.String
	e.StudentUserID = studentUserID.String
	e.MirroredFromEntryID = mirroredFromEntryID.String
	e.MirroredFromUserID = mirroredFromUserID.String

	e.TotalTime = totalTime.Float64
	e.PIC = pic.Float64
	e.SIC = sic.Float64
	e.DualReceived = dualReceived.Float64
	e.DualGiven = dualGiven.Float64
	e.Solo = solo.Float64
	e.CrossCountry = crossCountry.Float64
	e.Night = night.Float64
	e.ActualIMC = actualIMC.Float64
	e.SimulatedInstrument = simulatedInstrument.Float64
	e.GroundInstruction = groundInst.Float64

	e.DayTakeoffs = int(dayTakeoffs.Int64)
	e.DayLandings = int(dayLandings.Int64)
	e.NightTakeoffs = int(nightTakeoffs.Int64)
	e.NightLandings = int(nightLandings.Int64)
	e.DayFullStopLandings = int(dayFullStop.Int64)
	e.NightFullStopLandings = int(nightFullStop.Int64)
	e.Approaches = int(approaches.Int64)

	e.Holds = holds.Bool
	e.Tracking = tracking.Bool
	e.SafetyRelevant = safetyRelevant.Bool
	e.IsFlightReview = review.Bool

	if len(flightTypes) > 0 {
		if err := json.Unmarshal(flightTypes, &e.FlightTypes); err != nil {
			return nil, fmt.Errorf("flight_types decode error: %w", err)
		}
	}
	if len(maneuvers) > 0 {
		if err := json.Unmarshal(maneuvers, &e.Maneuvers); err != nil {
			return nil, fmt.Errorf("maneuvers decode error: %w", err)
		}
	}
	if len(signature) > 0 {
		if err := json.Unmarshal(signature, &e.Signature); err != nil {
			return nil, fmt.Errorf("signature decode error: %w", err)
		}
	}
	if len(instructorSnap) > 0 {
		if err := json.Unmarshal(instructorSnap, &e.InstructorSnapshot); err != nil {
			return nil, fmt.Errorf("instructor_snapshot decode error: %w", err)
		}
	}
	if len(studentSnap) > 0 {
		if err := json.Unmarshal(studentSnap, &e.StudentSnapshot); err != nil {
			return nil, fmt.Errorf("student_snapshot decode error: %w", err)
		}
	}

	e.CreatedAt = createdAt.UnixMilli()
	e.UpdatedAt = updatedAt.UnixMilli()
	if deletedAt.Valid {
		e.DeletedAt = deletedAt.Time.UnixMilli()
	}
	return &e, nil
}

// nullStr maps "" to NULL so empty optional fields do not round-trip as
// empty strings.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rawOrNil passes raw JSON through, mapping empty to NULL.
func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// jsonOrNil marshals v for a JSONB column, mapping nil pointers and empty
// slices to NULL.
func jsonOrNil(v any) (any, error) {
	switch value := v.(type) {
	case []string:
		if len(value) == 0 {
			return nil, nil
		}
	case *models.Signature:
		if value == nil {
			return nil, nil
		}
	case *models.InstructorSnapshot:
		if value == nil {
			return nil, nil
		}
	case *models.StudentSnapshot:
		if value == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonb encode error: %w", err)
	}
	return b, nil
}
