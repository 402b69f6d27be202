package llm

import (
	"fmt"
	"strings"

	"github.com/candidai/interview-gateway/internal/model"
)

// SessionContext carries the interview setup every prompt is built from.
type SessionContext struct {
	JobTitle    string
	CompanyName string
	CVContent   string
	Lang        string // "en" or "id"
}

func (c SessionContext) indonesian() bool { return c.Lang == "id" }

func copilotSystemInstruction(c SessionContext) string {
	var b strings.Builder

	if c.indonesian() {
		fmt.Fprintf(&b, `Anda adalah seorang career coach dan asisten AI yang ahli. Pengguna saat ini sedang dalam wawancara kerja langsung untuk posisi %q`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` di %q`, c.CompanyName)
		}
		b.WriteString(`. Peran Anda adalah memberikan bantuan real-time berkualitas tinggi untuk membantu mereka menjawab pertanyaan pewawancara secara efektif. Anda akan memberikan poin-poin pembicaraan yang ringkas dan contoh jawaban yang lengkap. Seluruh respons Anda HARUS dalam Bahasa Indonesia.`)
	} else {
		fmt.Fprintf(&b, `You are an expert career coach and AI assistant. The user is currently in a live job interview for the %q position`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` at %q`, c.CompanyName)
		}
		b.WriteString(`. Your role is to provide real-time, high-quality assistance to help them answer the interviewer's questions effectively. You will provide both concise talking points and a complete example answer.`)
	}

	if c.CompanyName != "" {
		if c.indonesian() {
			fmt.Fprintf(&b, "\n\n**Konteks Perusahaan:** Perusahaan target adalah %q. Gunakan pengetahuan Anda tentang perusahaan ini (produk, budaya, nilai, berita terbaru) untuk membuat saran Anda sangat relevan.", c.CompanyName)
		} else {
			fmt.Fprintf(&b, "\n\n**Company Context:** The target company is %q. Use your knowledge about this company (its products, culture, values, recent news) to make your suggestions highly relevant.", c.CompanyName)
		}
	}

	b.WriteString(cvBlock(c))

	if c.indonesian() {
		b.WriteString("\n\nPengguna akan memberikan Anda transkrip pertanyaan dari pewawancara. Ikuti aturan ini dengan ketat:\n" +
			"1. **Format Respons Markdown:** Anda HARUS merespons dengan string berformat markdown.\n" +
			"2. **Judul:** Respons HARUS berisi tepat dua judul: `### Talking Points` dan `### Example Answer`.\n" +
			"3. **Konten:** Di bawah `### Talking Points`, berikan daftar berpoin. Di bawah `### Example Answer`, berikan respons paragraf lengkap.\n" +
			"4. **Menyoroti dari CV:** Gunakan markdown tebal (`**teks**`) untuk menyorot kata kunci, keterampilan, nama proyek, atau metrik spesifik yang diambil langsung dari CV pengguna.\n" +
			"5. **Personalisasi:** Sesuaikan semua respons dengan CV pengguna dan perusahaan.\n" +
			"6. **Struktur:** Susun jawaban perilaku secara implisit mengikuti metode STAR (Situasi, Tugas, Aksi, Hasil).")
	} else {
		b.WriteString("\n\nThe user will provide you with a transcribed question from the interviewer. Follow these rules strictly:\n" +
			"1. **Markdown Response Format:** You MUST respond with a markdown formatted string.\n" +
			"2. **Headings:** The response MUST contain exactly two headings: `### Talking Points` and `### Example Answer`.\n" +
			"3. **Content:** Under `### Talking Points`, provide a bulleted list. Under `### Example Answer`, provide the full paragraph response.\n" +
			"4. **Highlighting from CV:** Use markdown bolding (`**text**`) to highlight specific keywords, skills, project names, or metrics taken directly from the user's CV.\n" +
			"5. **Personalization:** Tailor all responses to the user's CV and the company.\n" +
			"6. **Structure:** Structure behavioral responses implicitly following the STAR method (Situation, Task, Action, Result).")
	}

	return b.String()
}

func practiceSystemInstruction(c SessionContext) string {
	var b strings.Builder

	if c.indonesian() {
		fmt.Fprintf(&b, `Anda adalah seorang career coach dan pewawancara AI yang ahli. Peran Anda adalah melakukan wawancara latihan yang realistis dan komprehensif untuk seorang kandidat yang melamar posisi %q`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` di %q`, c.CompanyName)
		}
		b.WriteString(`. Seluruh interaksi Anda (pertanyaan, umpan balik) HARUS dalam Bahasa Indonesia.`)
	} else {
		fmt.Fprintf(&b, `You are an expert career coach and AI interviewer. Your role is to conduct a realistic and comprehensive practice interview for a candidate applying for the %q position`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` at %q`, c.CompanyName)
		}
		b.WriteString(`.`)
	}

	if c.indonesian() {
		b.WriteString("\n\n**Persona Pewawancara:**\n" +
			"- Ajukan satu pertanyaan pada satu waktu, dari kategori: perilaku, situasional, teknis, berbasis CV, kecocokan perusahaan.\n" +
			"- Mulailah dengan pertanyaan pembuka klasik seperti \"Ceritakan tentang diri Anda.\"\n\n" +
			"**Persona Pelatih (Umpan Balik):**\n" +
			"- Setelah pengguna menjawab, berikan umpan balik singkat dan konstruktif (2-4 kalimat) beserta peringkat.\n" +
			"- Peringkat HARUS salah satu dari: 'Perlu Peningkatan', 'Baik', atau 'Luar Biasa'.\n\n" +
			"**Format Respons:**\n" +
			"1. Respons pertama Anda hanya berisi pertanyaan pembuka, tanpa pemisah.\n" +
			"2. Pada giliran berikutnya, respons dalam markdown dengan tiga bagian yang dipisahkan oleh '---': Umpan Balik, Peringkat, Pertanyaan Berikutnya.")
	} else {
		b.WriteString("\n\n**Interviewer Persona:**\n" +
			"- Ask one question at a time, drawing from these categories: behavioral, situational, technical, CV-based, company-fit.\n" +
			"- Start with a classic opening question like \"Tell me about yourself.\"\n\n" +
			"**Coach Persona (Feedback):**\n" +
			"- After the user answers, give brief, constructive feedback (2-4 sentences) along with a rating.\n" +
			"- The rating MUST be one of: 'Needs Improvement', 'Good', or 'Excellent'.\n\n" +
			"**Response Format:**\n" +
			"1. Your first response must contain only your opening question, with no separators.\n" +
			"2. On subsequent turns, respond in markdown with three sections separated by '---': Feedback, Rating, Next Question.")
	}

	b.WriteString(cvBlock(c))

	return b.String()
}

func exampleAnswerSystemInstruction(c SessionContext) string {
	var b strings.Builder

	if c.indonesian() {
		fmt.Fprintf(&b, `Anda adalah seorang career coach ahli yang memberikan jawaban model untuk sesi latihan wawancara kerja. Pengguna melamar untuk posisi %q`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` di %q`, c.CompanyName)
		}
		b.WriteString(".\nAnda HARUS mendasarkan jawaban pada CV yang diberikan pengguna dan secara implisit mengikuti metode STAR untuk pertanyaan perilaku.\n" +
			"Gunakan format tebal markdown (`**teks**`) untuk menyorot keterampilan, nama proyek, atau metrik dari CV.\n" +
			"Hanya berikan teks jawaban contoh, tanpa teks percakapan apa pun.")
	} else {
		fmt.Fprintf(&b, `You are an expert career coach providing a model answer for a job interview practice session. The user is applying for the %q position`, c.JobTitle)
		if c.CompanyName != "" {
			fmt.Fprintf(&b, ` at %q`, c.CompanyName)
		}
		b.WriteString(".\nYou MUST base the answer on the user's provided CV and implicitly follow the STAR method for behavioral questions.\n" +
			"Use markdown bolding (`**text**`) to highlight specific skills, project names, or metrics taken directly from the CV.\n" +
			"Respond ONLY with the example answer text. Do not add any conversational text.")
	}

	if c.CVContent != "" {
		if c.indonesian() {
			fmt.Fprintf(&b, "\n\nCV Pengguna:\n--- CV MULAI ---\n%s\n--- CV SELESAI ---", c.CVContent)
		} else {
			fmt.Fprintf(&b, "\n\nUser's CV:\n--- CV START ---\n%s\n--- CV END ---", c.CVContent)
		}
	}

	return b.String()
}

func cvBlock(c SessionContext) string {
	if c.CVContent != "" {
		if c.indonesian() {
			return fmt.Sprintf("\n\nAnda memiliki CV pengguna sebagai konteks:\n--- CV MULAI ---\n%s\n--- CV SELESAI ---", c.CVContent)
		}
		return fmt.Sprintf("\n\nYou have the user's CV for context:\n--- CV START ---\n%s\n--- CV END ---", c.CVContent)
	}
	if c.indonesian() {
		return fmt.Sprintf("\n\nTidak ada CV yang diberikan. Dasarkan respons Anda pada praktik terbaik umum untuk peran %q.", c.JobTitle)
	}
	return fmt.Sprintf("\n\nNo CV was provided. Base your responses on general best practices for the %q role.", c.JobTitle)
}

func copilotUserMessage(question, lang string) string {
	if lang == "id" {
		return fmt.Sprintf("Pewawancara bertanya: %q. Tolong hasilkan poin-poin pembicaraan DAN contoh jawaban lengkap berdasarkan CV saya.", question)
	}
	return fmt.Sprintf("The interviewer asked: %q. Please generate talking points AND a complete example answer based on my CV.", question)
}

func practiceUserMessage(latestAnswer, lang string) string {
	if latestAnswer == "" {
		if lang == "id" {
			return "Tolong ajukan pertanyaan pertama."
		}
		return "Please ask me the first question."
	}
	if lang == "id" {
		return fmt.Sprintf("Ini jawaban saya: %q. Mohon berikan umpan balik, peringkat, dan pertanyaan berikutnya dalam format yang ditentukan.", latestAnswer)
	}
	return fmt.Sprintf("Here is my answer: %q. Please provide feedback, a rating, and the next question in the specified format.", latestAnswer)
}

func exampleAnswerUserMessage(question, lang string) string {
	if lang == "id" {
		return fmt.Sprintf("Tolong berikan contoh jawaban yang sangat baik untuk pertanyaan wawancara berikut: %q", question)
	}
	return fmt.Sprintf("Please provide an excellent example answer for the following interview question: %q", question)
}

func briefingPrompt(companyName, lang string) string {
	if lang == "id" {
		return fmt.Sprintf(`Anda adalah seorang analis riset karir yang ahli. Anda sedang menyiapkan ringkasan singkat untuk seorang kandidat yang akan wawancara di %q. Berdasarkan informasi terkini dari web, hasilkan laporan dalam format markdown dan dalam Bahasa Indonesia.

Laporan HARUS mencakup bagian-bagian berikut dengan judul yang persis seperti yang ditentukan:
### Tinjauan Perusahaan
Ringkasan singkat satu paragraf tentang apa yang dilakukan perusahaan.

### Misi & Nilai
Pernyataan misi perusahaan dan nilai-nilai inti, disajikan sebagai daftar singkat.

### Berita & Perkembangan Terkini
2-3 poin tentang peristiwa penting, peluncuran produk, atau berita terbaru (dalam 6-12 bulan terakhir).

### Contoh Pertanyaan Wawancara
3 pertanyaan perilaku atau kecocokan perusahaan yang mungkin diajukan oleh pewawancara di %q, dengan alasan singkat dalam format miring untuk setiap pertanyaan.`, companyName, companyName)
	}
	return fmt.Sprintf(`You are an expert career research analyst. You are preparing a concise briefing for a candidate interviewing at %q. Based on up-to-date information from the web, generate a report in markdown format.

The report MUST include the following sections with the exact headings as specified:
### Company Overview
A brief, one-paragraph summary of what the company does.

### Mission & Values
The company's mission statement and core values, presented as a short list.

### Recent News & Developments
2-3 bullet points on significant recent events, product launches, or news (within the last 6-12 months).

### Potential Interview Questions
3 behavioral or company-fit questions an interviewer at %q might ask, with a brief rationale in italics for each.`, companyName, companyName)
}

func summaryPrompt(c SessionContext, mode model.Mode, conversation []model.ConversationItem) string {
	transcript := summaryTranscript(conversation, mode, c.Lang)
	practice := mode == model.ModePractice

	if c.indonesian() {
		company := ""
		if c.CompanyName != "" {
			company = fmt.Sprintf(" di %q", c.CompanyName)
		}
		sessionMode := "Bantuan Copilot Langsung"
		if practice {
			sessionMode = "Wawancara Latihan"
		}
		return fmt.Sprintf(`Anda adalah seorang pelatih wawancara ahli yang memberikan ringkasan akhir untuk seorang kandidat yang baru saja menyelesaikan sesi untuk posisi %q%s.

Mode sesi adalah: %s.
Berdasarkan transkrip berikut, berikan tinjauan kinerja yang komprehensif dalam Bahasa Indonesia.

Transkrip:
---
%s
---

Ringkasan Anda HARUS mencakup:
1. **Refleksi Kinerja Keseluruhan**
2. **Analisis Kekuatan Utama** (2-3 kekuatan)
3. **Area Potensial untuk Peningkatan** (2-3 area yang dapat ditindaklanjuti)
4. **Komentar Penutup**

Respons dengan satu objek JSON yang valid dengan satu kunci: "summary". Nilainya harus berupa satu string markdown yang berisi laporan lengkap.`, c.JobTitle, company, sessionMode, transcript)
	}

	company := ""
	if c.CompanyName != "" {
		company = fmt.Sprintf(" at %q", c.CompanyName)
	}
	sessionMode := "Live Copilot Assistance"
	if practice {
		sessionMode = "Practice Interview"
	}
	return fmt.Sprintf(`You are an expert interview coach providing a final summary for a candidate who just completed a session for the %q position%s.

The session mode was: %s.
Based on the following transcript, provide a comprehensive performance review.

Transcript:
---
%s
---

Your summary MUST include:
1. **Overall Performance Reflection**
2. **Key Strengths Analysis** (2-3 strengths)
3. **Potential Areas for Improvement** (2-3 actionable areas)
4. **Closing Remarks**

Respond with a single, valid JSON object with one key: "summary". The value should be a single markdown string containing the full report.`, c.JobTitle, company, sessionMode, transcript)
}

// summaryTranscript renders the conversation log as labeled lines for the
// summary prompt. Labels depend on mode and language.
func summaryTranscript(conversation []model.ConversationItem, mode model.Mode, lang string) string {
	indonesian := lang == "id"
	practice := mode == model.ModePractice

	lines := make([]string, 0, len(conversation))
	for _, item := range conversation {
		switch {
		case practice && item.Role == model.RoleModel:
			label := "AI Interviewer"
			if indonesian {
				label = "Pewawancara AI"
			}
			text := fmt.Sprintf("%s: %s", label, item.Text)
			if item.Feedback != "" {
				fbLabel, ratingLabel := "AI Feedback", "Rating"
				if indonesian {
					fbLabel, ratingLabel = "Umpan Balik AI", "Peringkat"
				}
				rating := string(item.Rating)
				if rating == "" {
					rating = "N/A"
				}
				text = fmt.Sprintf("%s (%s: %s): %s\n%s", fbLabel, ratingLabel, rating, item.Feedback, text)
			}
			lines = append(lines, text)

		case practice:
			label := "Your Answer"
			if indonesian {
				label = "Jawaban Anda"
			}
			lines = append(lines, fmt.Sprintf("%s: %s", label, item.Text))

		case item.Role == model.RoleModel:
			label := "Interviewer asked"
			if indonesian {
				label = "Pewawancara bertanya"
			}
			lines = append(lines, fmt.Sprintf("%s: %s", label, item.Text))

		default:
			var label string
			if item.Kind == model.KindExampleAnswer {
				label = "AI gave an example answer:"
				if indonesian {
					label = "AI memberikan contoh jawaban:"
				}
			} else {
				label = "AI suggested talking points:"
				if indonesian {
					label = "AI menyarankan poin pembicaraan:"
				}
			}
			lines = append(lines, fmt.Sprintf("%s\n%s", label, item.Text))
		}
	}

	return strings.Join(lines, "\n\n")
}
