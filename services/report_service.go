package services

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/mbrth/iasante/models"
	"github.com/mbrth/iasante/utils"

	"github.com/jung-kurt/gofpdf"
)

// Report palette, mirrored from the web client's design system.
var (
	reportPrimary = [3]int{5, 150, 105}    // emerald
	reportDark    = [3]int{15, 23, 42}     // slate 900
	reportMuted   = [3]int{148, 163, 184}  // slate 400
	reportRule    = [3]int{226, 232, 240}  // slate 200
)

const reportDisclaimer = "AVERTISSEMENT : Ce rapport est généré par une intelligence artificielle à titre informatif. Il ne remplace en aucun cas un avis médical, un diagnostic ou un traitement professionnel. Consultez toujours un médecin avant de modifier votre régime alimentaire ou vos traitements."

// ReportFileName is the date-stamped download name of the report artifact.
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("NutriPath_Report_%s.pdf", now.Format("02-01-2006"))
}

// GenerateReport lays out the clinical report: header band, patient info,
// clinical record, risk narrative and — only when a plan exists — a plan
// summary. A nil plan simply omits its section. The document embeds the
// current date and a random patient ID, so two runs are never byte-identical.
func GenerateReport(w io.Writer, profile *models.Profile, metrics []models.HealthMetrics, plan []models.PlanDay, risk *models.RiskAssessment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 30)
	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()
	date := time.Now().Format("02/01/2006")

	// header band
	pdf.SetFillColor(reportDark[0], reportDark[1], reportDark[2])
	pdf.Rect(0, 0, pageW, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(20, 25, "NutriPath AI")

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 32, "PROTOCOLE DE NUTRITION CLINIQUE")

	pdf.SetFontSize(9)
	pdf.Text(pageW-60, 25, tr(fmt.Sprintf("Édité le : %s", date)))
	pdf.Text(pageW-60, 32, fmt.Sprintf("ID Patient: NP-%d", rand.Intn(90000)+10000))

	// 1. patient info
	y := sectionTitle(pdf, tr, 55, "1. INFORMATIONS PATIENT")
	pdf.SetDrawColor(reportRule[0], reportRule[1], reportRule[2])
	pdf.Line(20, y, pageW-20, y)
	y += 3

	pdf.SetFontSize(10)
	for _, row := range patientInfoRows(profile) {
		pdf.SetXY(20, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(reportMuted[0], reportMuted[1], reportMuted[2])
		pdf.CellFormat(25, 7, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(reportDark[0], reportDark[1], reportDark[2])
		pdf.CellFormat(60, 7, tr(row[1]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(reportMuted[0], reportMuted[1], reportMuted[2])
		pdf.CellFormat(25, 7, tr(row[2]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(reportDark[0], reportDark[1], reportDark[2])
		pdf.CellFormat(60, 7, tr(row[3]), "", 1, "L", false, 0, "")
		y += 7
	}
	y += 10

	// 2. clinical record
	y = sectionTitle(pdf, tr, y, "2. DOSSIER CLINIQUE")
	clinicalRows := [][2]string{
		{"Pathologies", joinOr(profile.Pathologies, "Néant")},
		{"Traitements", joinOr(profile.Treatments, "Aucun traitement renseigné")},
		{"Allergies", joinOr(profile.Allergies, "Aucune allergie connue")},
	}

	pdf.SetXY(20, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(reportPrimary[0], reportPrimary[1], reportPrimary[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 9, tr("CATÉGORIE"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(pageW-40-45, 9, tr("DÉTAILS MÉDICAUX"), "1", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(reportDark[0], reportDark[1], reportDark[2])
	for _, row := range clinicalRows {
		pdf.SetX(20)
		pdf.CellFormat(45, 9, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(pageW-40-45, 9, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	y = pdf.GetY() + 12

	// 3. risk narrative
	y = sectionTitle(pdf, tr, y, "3. ANALYSE ET SCORE DE SANTÉ")
	score := 85.0
	feedback := "Maintenir le protocole actuel."
	if risk != nil {
		score = risk.HealthScore
		if risk.AIFeedback != "" {
			feedback = risk.AIFeedback
		}
	}
	pdf.SetXY(20, y)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(reportDark[0], reportDark[1], reportDark[2])
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Score de Santé Global : %.0f/100", score)), "", 1, "L", false, 0, "")

	pdf.SetX(20)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.MultiCell(pageW-40, 5, tr(fmt.Sprintf("Recommandation IA : \"%s\"", feedback)), "", "L", false)
	y = pdf.GetY() + 10

	// 4. plan summary — omitted entirely without a plan
	if len(plan) > 0 {
		y = sectionTitle(pdf, tr, y, "4. RÉSUMÉ DU PROTOCOLE NUTRITIONNEL")

		pdf.SetXY(20, y)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(reportDark[0], reportDark[1], reportDark[2])
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(35, 8, "JOUR", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 8, "CALORIES CIBLES", "1", 0, "L", true, 0, "")
		pdf.CellFormat(pageW-40-75, 8, "EXEMPLE DE REPAS", "1", 1, "L", true, 0, "")

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(reportDark[0], reportDark[1], reportDark[2])
		for _, row := range planSummaryRows(plan) {
			pdf.SetX(20)
			pdf.CellFormat(35, 8, tr(row[0]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 8, row[1], "1", 0, "L", false, 0, "")
			pdf.CellFormat(pageW-40-75, 8, tr(row[2]), "1", 1, "L", false, 0, "")
		}
	}

	// footer
	footerY := pageH - 25
	pdf.SetDrawColor(reportRule[0], reportRule[1], reportRule[2])
	pdf.Line(20, footerY, pageW-20, footerY)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(reportMuted[0], reportMuted[1], reportMuted[2])
	pdf.SetXY(20, footerY+3)
	pdf.MultiCell(pageW-40, 3.5, tr(reportDisclaimer), "", "C", false)

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetXY(20, footerY+16)
	pdf.CellFormat(pageW-40, 4, tr("© 2025 NutriPath AI - Excellence en Nutrition Clinique"), "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// patientInfoRows builds the label/value grid of the patient info section.
// The status cell carries the clinical weight classification of the stored BMI.
func patientInfoRows(profile *models.Profile) [][4]string {
	return [][4]string{
		{"Âge", fmt.Sprintf("%d ans", profile.Age), "Sexe", profile.Sex},
		{"Taille", fmt.Sprintf("%g cm", profile.Height), "Poids", fmt.Sprintf("%g kg", profile.Weight)},
		{"IMC", utils.FormatBMI(profile.BMI), "Statut", utils.BMICategory(profile.BMI)},
	}
}

func sectionTitle(pdf *gofpdf.Fpdf, tr func(string) string, y float64, title string) float64 {
	pdf.SetTextColor(reportPrimary[0], reportPrimary[1], reportPrimary[2])
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(20, y, tr(title))
	return y + 8
}

// planSummaryRows builds the 3-day summary: day, calorie target, and the
// day's meal names joined and truncated to 80 characters plus an ellipsis.
func planSummaryRows(plan []models.PlanDay) [][3]string {
	n := len(plan)
	if n > 3 {
		n = 3
	}
	rows := make([][3]string, 0, n)
	for _, d := range plan[:n] {
		names := make([]string, 0, len(d.Meals))
		for _, m := range d.Meals {
			names = append(names, m.Name)
		}
		rows = append(rows, [3]string{
			d.Day,
			fmt.Sprintf("%.0f kcal", d.TotalCalories),
			truncateMealList(strings.Join(names, ", ")),
		})
	}
	return rows
}

func truncateMealList(joined string) string {
	r := []rune(joined)
	if len(r) > 80 {
		joined = string(r[:80])
	}
	return joined + "..."
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
