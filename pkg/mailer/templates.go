package mailer

import "fmt"

const licenseKeySubject = "【X Draft】ライセンスキーの発行"

const licenseKeyBody = `ご購入ありがとうございます。

以下のライセンスキーをアプリに入力してください。

ライセンスキー: %s

ダウンロード: https://xdraft.spacegleam.co.jp/download.html

【重要】このメールは大切に保管してください
このメールにダウンロードリンクとライセンスキーが記載されています。
上記のダウンロードリンクをブックマークしていつでも再ダウンロードできます。

【より便利にご利用いただくには】
このメールアドレス（%s）で新規登録すると、マイページでライセンスキーの確認やアプリの再ダウンロードができます。
マイページ: https://xdraft.spacegleam.co.jp/mypage.html

もし不明点があればこのメールに返信してください。`

const subscriptionWelcomeSubject = "【コンプラナビ】ご登録ありがとうございます"

const subscriptionWelcomeBody = `コンプラナビにご登録いただき、ありがとうございます。

これより、制度期限の自動通知サービスをご利用いただけます。

■ ご利用方法
1. プロフィール設定で会社情報を登録
2. ダッシュボードで該当する制度を確認
3. 期限の30日前・7日前・前日にメール通知

■ マイページ
https://compliancenavi.spacegleam.co.jp/dashboard.html

ご不明な点がございましたら、このメールに返信してください。

コンプラナビ運営チーム`

// LicenseKeyMessage renders the purchase confirmation carrying the key.
func LicenseKeyMessage(toEmail, licenseKey string) (subject, body string) {
	return licenseKeySubject, fmt.Sprintf(licenseKeyBody, licenseKey, toEmail)
}

// SubscriptionWelcomeMessage renders the subscription activation greeting.
func SubscriptionWelcomeMessage() (subject, body string) {
	return subscriptionWelcomeSubject, subscriptionWelcomeBody
}
