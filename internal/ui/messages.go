package ui

import "strings"

// Button labels. The reply-keyboard buttons arrive back as plain text, so
// the router matches on these exact strings.
const (
	ShareLocationButton = "Kaza Konumunu Paylaş"
	NewReportButton     = "➕ Yeni Rapor"
	BalanceButton       = "💰 Bakiye"
	RulesButton         = "📜 Kurallar"
	SupportButton       = "📞 Destek"
	SkipButton          = "Atla"
	SubmitReportButton  = "Raporu Gönder"
	CancelButton        = "İptal"
)

// messages is the static localized text table. Templates use {name}
// placeholders filled by F; plain entries are read through T.
var messages = map[string]string{
	"welcome_caption": "Kazabot'a hoş geldiniz! Bize katıldığınız için hesabınıza {initial_balance} ₺ başlangıç bakiyesi ekledik. " +
		"Ekibimiz tarafından doğrulanan her kaza raporu için {reward_amount} ₺ ödül kazanacaksınız. " +
		"Toplam bakiyeniz {payout_threshold} ₺'ye ulaştığında kazancınızı çekebilirsiniz.\n\n" +
		"Hadi başlayalım! Lütfen aşağıdaki butona basarak kazanın konumunu paylaşın.",

	"location_received":    "Harika! Şimdi, lütfen kazanın net bir fotoğrafını çekip bana gönderin.",
	"photo_received":       "Fotoğraf alındı. Şimdi, lütfen kısa bir açıklama ekleyin (ör. 'iki araba, arkadan çarpma'). Bu isteğe bağlıdır. 'Atla' tuşuna basarak da geçebilirsiniz.",
	"description_too_long": "Açıklama çok uzun (en fazla {max_length} karakter). Lütfen tekrar deneyin.",
	"ask_crash_time":       "Anlaşıldı. Kaza yaklaşık kaç dakika önce oldu? (Lütfen 0 ile 60 arasında bir sayı girin)",
	"invalid_crash_time":   "Bu geçerli bir sayı değil. Lütfen 0 ile 60 arasında bir sayı girin.",
	"report_submitted":     "✅ Başarılı! Raporunuz gönderildi.\n\n",
	"report_canceled":      "Rapor iptal edildi. İstediğiniz zaman yenisini başlatabilirsiniz.",
	"generic_error":        "Bir şeyler yanlış gitti. Lütfen /start ile yeniden başlayın.",
	"final_message":        "Şimdi yeni bir rapor gönderebilir veya bu sohbeti kapatabilirsiniz.",
	"daily_cap_reached":    "Bugünlük rapor limitinize ulaştınız. Lütfen yarın tekrar deneyin.",

	"balance_info": "💰 Mevcut Bakiyeniz: {balance} ₺\n\nÖdeme talebinde bulunabilmek için ulaşmanız gereken bakiye: {payout_threshold} ₺.",
	"rules_text": "📜 **KazaBot Kuralları**\n\n" +
		"• Doğrulanmış raporlar için ödül: **{reward_amount} ₺**.\n" +
		"• Ödeme alt limiti: **{payout_threshold} ₺**.\n" +
		"• Hizmet bölgelerimiz: **{service_zones}**.\n\n" +
		"Lütfen sadece belirtilen hizmet bölgelerindeki kazaları bildirin. İşbirliğiniz için teşekkür ederiz!",
	"support_text": "Yardıma mı ihtiyacınız var?\n\n" +
		"Tüm sorularınız, sorunlarınız veya geri bildirimleriniz için destek ekibimizle doğrudan iletişime geçebilirsiniz. " +
		"Lütfen aşağıdaki linke tıklayın:\n\n" +
		"➡️ **[Destek Sohbetini Başlat](https://t.me/mrvooooo)**\n\n" +
		"Ekibimiz en kısa sürede size yardımcı olacaktır.",

	"admin_notification": "🚨 Yeni Kaza Raporu Gönderildi 🚨\n\n" +
		"📍 Konum (Google Haritalar):\n{maps_link}\n\n" +
		"Rapor ID: {report_id}\n" +
		"Gönderen: @{username} (ID: {user_id})\n" +
		"Açıklama: {description}\n" +
		"Geçen Süre: ~{crash_time} dakika önce",
	"admin_decision_suffix":    "--- Karar ---\nDurum {status} tarafından @{username}.",
	"user_update_notification": "GÜNCELLEME: Raporunuz (ID: {report_id}) *{status}* olarak işaretlendi.",
	"user_reward_notification": "\n\nTebrikler! Hesabınıza {reward_amount} TL eklendi. Yeni bakiyeniz {new_balance} TL.",

	"report_summary": "--- RAPORUNUZU GÖZDEN GEÇİRİN ---\n" +
		"📍 Konum: Gönderildi\n" +
		"📸 Fotoğraf: Gönderildi\n" +
		"📝 Açıklama: {description}\n" +
		"⏱️ Kaza Zamanı: ~{crash_time} dakika önce\n\n" +
		"Her şey doğru mu?",

	"payout_unauthorized":         "Bu komut sadece yöneticiler içindir.",
	"payout_usage":                "Kullanım: /odeme <user_id> <amount>",
	"payout_must_be_positive":     "Ödeme tutarı pozitif bir sayı olmalıdır.",
	"payout_user_not_found":       "ID'si {user_id} olan kullanıcı bulunamadı.",
	"payout_insufficient_balance": "Kullanıcı {user_id} için yetersiz bakiye.\nMevcut Bakiye: {current_balance} ₺\nÖdeme Tutarı: {amount} ₺",
	"payout_success_admin":        "✅ Kullanıcı {user_id} için {amount} ₺ tutarındaki ödeme kaydedildi.\nYeni bakiyesi şimdi {new_balance} ₺.",
	"payout_success_user":         "{amount} ₺ tutarındaki ödeme ekibimiz tarafından işlendi! Yeni bakiyeniz {new_balance} ₺.",
	"payout_notification_failed":  "⚠️ Kullanıcı {user_id} tarafına bildirim gönderilemedi.",
}

// T returns the raw template for key. Unknown keys come back empty, which
// is a programming error the tests catch.
func T(key string) string {
	return messages[key]
}

// F fills {name} placeholders from name/value pairs.
func F(key string, pairs ...string) string {
	text := messages[key]
	for i := 0; i+1 < len(pairs); i += 2 {
		text = strings.ReplaceAll(text, "{"+pairs[i]+"}", pairs[i+1])
	}
	return text
}
