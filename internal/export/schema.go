package export

import "time"

// FlightRow is one flight leg in the logbook export.
type FlightRow struct {
	Date         string    `parquet:"date"`
	FlightNumber string    `parquet:"flight_number"`
	From         string    `parquet:"from"`
	To           string    `parquet:"to"`
	STDLocal     string    `parquet:"std_local"`
	STDUTC       string    `parquet:"std_utc"`
	STALocal     string    `parquet:"sta_local"`
	STAUTC       string    `parquet:"sta_utc"`
	BlockHours   string    `parquet:"block_hours"`
	ElapsedTime  string    `parquet:"elapsed_time"`
	NightTime    string    `parquet:"night_time"`
	AircraftReg  string    `parquet:"aircraft_reg"`
	Remarks      string    `parquet:"remarks"`
	OwnerID      string    `parquet:"owner_id"`
	ExportedAt   time.Time `parquet:"exported_at,timestamp(millisecond)"`
}

// TableName returns the canonical table name.
func (FlightRow) TableName() string {
	return "flights"
}

// PersonRow is one crew member sighting in the logbook export.
type PersonRow struct {
	Name       string    `parquet:"name"`
	Date       string    `parquet:"date"`
	Flights    int32     `parquet:"flights"`
	OwnerID    string    `parquet:"owner_id"`
	ExportedAt time.Time `parquet:"exported_at,timestamp(millisecond)"`
}

// TableName returns the canonical table name.
func (PersonRow) TableName() string {
	return "people"
}

// AircraftRow is one distinct airframe in the logbook export.
type AircraftRow struct {
	Registration string    `parquet:"registration"`
	Flights      int32     `parquet:"flights"`
	OwnerID      string    `parquet:"owner_id"`
	ExportedAt   time.Time `parquet:"exported_at,timestamp(millisecond)"`
}

// TableName returns the canonical table name.
func (AircraftRow) TableName() string {
	return "aircraft"
}

// SchemaVersion is the version of the export schema.
// Increment this when making breaking changes.
const SchemaVersion = "1.0.0"
