package tgscreenshots

import "fmt"

// Lang is the active language.
var Lang = "en"

// Messages keyed by ID, with en/ja/fr variants.
var messages = map[string]map[string]string{
	// === Startup ===
	"watching":        {"en": "Watching %s for new screenshots", "ja": "%s の新しいスクリーンショットを監視中", "fr": "Surveillance de %s pour les nouvelles captures"},
	"chat_info":       {"en": "Chat: %s", "ja": "チャット: %s", "fr": "Discussion : %s"},
	"no_modes":        {"en": "Both --send-as-photo and --send-as-document are off: nothing will be sent", "ja": "--send-as-photo と --send-as-document が両方無効のため何も送信されません", "fr": "--send-as-photo et --send-as-document sont désactivés : rien ne sera envoyé"},
	"modes_info":      {"en": "Send modes: %s", "ja": "送信モード: %s", "fr": "Modes d'envoi : %s"},
	"ledger_info":     {"en": "Ledger: %s", "ja": "台帳: %s", "fr": "Registre : %s"},
	"thread_file":     {"en": "Thread name file: %s", "ja": "スレッド名ファイル: %s", "fr": "Fichier de nom de fil : %s"},
	"initial_skipped": {"en": "Initial scan disabled", "ja": "初回スキャンは無効", "fr": "Scan initial désactivé"},
	"missing_chat_id": {"en": "No chat id configured. Add the bot to a chat, it will reply with the id to use.", "ja": "chat id が未設定です。Bot をチャットに追加すると、使用する id を返信します。", "fr": "Aucun identifiant de discussion. Ajoutez le bot à une discussion, il répondra avec l'identifiant à utiliser."},
	"degraded":        {"en": "Running without a chat: greeting only", "ja": "チャット未設定のため挨拶のみで動作中", "fr": "Fonctionnement sans discussion : accueil uniquement"},
	"bot_started":     {"en": "Bot @%s listening for updates", "ja": "Bot @%s が更新を待機中", "fr": "Bot @%s à l'écoute des mises à jour"},
	"bot_failed":      {"en": "Bot update loop failed: %v", "ja": "Bot 更新ループ失敗: %v", "fr": "Échec de la boucle de mises à jour du bot : %v"},

	// === Reconcile ===
	"scanning":       {"en": "Scanning %s for screenshots not yet sent to %s...", "ja": "%s で %s に未送信のスクリーンショットを検索中...", "fr": "Recherche dans %s des captures pas encore envoyées à %s..."},
	"found_sent":     {"en": "Ledger knows %d sent screenshot(s)", "ja": "台帳には送信済み %d 件", "fr": "Le registre connaît %d capture(s) envoyée(s)"},
	"found_unsent":   {"en": "Found %d unsent screenshot(s)", "ja": "未送信のスクリーンショット %d 件", "fr": "%d capture(s) non envoyée(s) trouvée(s)"},
	"reconcile_done": {"en": "Initial scan done: %d sent, %d already known, %d failed", "ja": "初回スキャン完了: 送信 %d, 既知 %d, 失敗 %d", "fr": "Scan initial terminé : %d envoyée(s), %d déjà connue(s), %d échec(s)"},
	"file_failed":    {"en": "%s -> %s failed: %v", "ja": "%s -> %s 失敗: %v", "fr": "%s -> %s échec : %v"},

	// === Delivery ===
	"sending":        {"en": "Sending %s to %s", "ja": "%s を %s に送信中", "fr": "Envoi de %s vers %s"},
	"sending_thread": {"en": "Sending %s to %s (thread %d)", "ja": "%s を %s に送信中 (スレッド %d)", "fr": "Envoi de %s vers %s (fil %d)"},
	"already_sent":   {"en": "%s already sent, skipping", "ja": "%s は送信済み、スキップ", "fr": "%s déjà envoyée, ignorée"},
	"marked_sent":    {"en": "%s sent and recorded", "ja": "%s 送信・記録完了", "fr": "%s envoyée et enregistrée"},
	"resent":         {"en": "%s copied again from message %d", "ja": "%s をメッセージ %d から再送", "fr": "%s recopiée depuis le message %d"},
	"record_failed":  {"en": "%s was sent as message %d but could not be recorded: %v", "ja": "%s はメッセージ %d として送信済みだが記録失敗: %v", "fr": "%s envoyée (message %d) mais non enregistrée : %v"},
	"event_panic":    {"en": "Handling %s panicked: %v", "ja": "%s の処理でパニック: %v", "fr": "Panique lors du traitement de %s : %v"},

	// === Thread ===
	"marker_missing":       {"en": "Thread name file %s not found, sending to the main chat", "ja": "スレッド名ファイル %s が見つからないため、メインチャットに送信", "fr": "Fichier de nom de fil %s introuvable, envoi dans la discussion principale"},
	"thread_created":       {"en": "Created thread %q (%d)", "ja": "スレッド %q (%d) を作成", "fr": "Fil %q (%d) créé"},
	"thread_record_failed": {"en": "Thread %q (%d) created but not recorded: %v", "ja": "スレッド %q (%d) は作成済みだが記録失敗: %v", "fr": "Fil %q (%d) créé mais non enregistré : %v"},

	// === Alerts ===
	"alert_record_title":   {"en": "tgscreenshots: ledger write failed", "ja": "tgscreenshots: 台帳書き込み失敗", "fr": "tgscreenshots : échec d'écriture du registre"},
	"alert_delivery_title": {"en": "tgscreenshots: delivery failed", "ja": "tgscreenshots: 送信失敗", "fr": "tgscreenshots : échec d'envoi"},

	// === Greeter ===
	"greet_start":   {"en": "Hi! Add me to a chat or channel and I will tell you its id.", "ja": "こんにちは！チャットかチャンネルに追加すると、その id をお知らせします。", "fr": "Bonjour ! Ajoutez-moi à une discussion ou un canal et je vous donnerai son identifiant."},
	"greet_chat_id": {"en": "This chat id is <code>%d</code>. Start the watcher with:\n<pre>%s</pre>", "ja": "このチャットの id は <code>%d</code> です。次のコマンドで起動:\n<pre>%s</pre>", "fr": "L'identifiant de cette discussion est <code>%d</code>. Lancez la surveillance avec :\n<pre>%s</pre>"},

	// === Signal ===
	"signal_received": {"en": "Signal received, finishing in-flight sends...", "ja": "シグナル受信、送信中の処理を完了中...", "fr": "Signal reçu, fin des envois en cours..."},
	"stopped":         {"en": "Stopped", "ja": "停止", "fr": "Arrêté"},
}

// Msg returns a localized message by key.
// Falls back to English if the key or language is missing.
func Msg(key string) string {
	if m, ok := messages[key]; ok {
		if s, ok := m[Lang]; ok {
			return s
		}
		if s, ok := m["en"]; ok {
			return s
		}
	}
	return fmt.Sprintf("[missing: %s]", key)
}
