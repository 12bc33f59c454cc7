package barstore

// Times are unix seconds of the bar open, UTC.
const Schema = `
CREATE TABLE IF NOT EXISTS bars (
	instrument TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	time INTEGER NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	tick_volume INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (instrument, timeframe, time)
);
`
