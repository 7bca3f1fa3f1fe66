package invoice

// HistoricalBaseline holds the fixed monthly sales figures used by the
// annual comparison. The 2025 column is the starting figure that ingested
// records are added on top of.
type HistoricalBaseline struct {
	Year2023 [12]float64
	Year2024 [12]float64
	Year2025 [12]float64
}

// MonthLabels are the calendar month names used in the comparison series
var MonthLabels = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// DefaultBaseline is the historical sales table carried over from the
// company's previous bookkeeping.
var DefaultBaseline = HistoricalBaseline{
	Year2023: [12]float64{11588, 16959, 22744, 19377, 18150, 34948, 27631, 31368, 46220, 34691, 37323, 56573},
	Year2024: [12]float64{24053.81, 29824.9, 46864.61, 29174.39, 23567.47, 33548, 35546.94, 39585.97, 32083.62, 40845.41, 36009.6, 66273.31},
	Year2025: [12]float64{29353.24, 29143.16, 39100, 33974.687, 50492.431, 42986.1575, 50007.7, 52563.337, 60771.15, 39950.799, 68875.53, 70396.592},
}
